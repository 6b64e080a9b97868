package simulation

import (
	"github.com/google/uuid"

	"github.com/gravitas-games/freepath/internal/routing"
	"github.com/gravitas-games/freepath/pkg/hex"
)

// AgentKind determines how an agent moves.
type AgentKind string

const (
	KindWorker  AgentKind = "worker"
	KindSoldier AgentKind = "soldier"
	KindShip    AgentKind = "ship"
)

// Valid reports whether k is a known kind.
func (k AgentKind) Valid() bool {
	return k == KindWorker || k == KindSoldier || k == KindShip
}

// movement returns the routing rules of the kind.
func (k AgentKind) movement() routing.Kind {
	if k == KindShip {
		return routing.KindShip
	}
	return routing.KindHuman
}

// AgentState is the movement state of an agent.
type AgentState string

const (
	StateIdle    AgentState = "idle"
	StateMoving  AgentState = "moving"
	StateWaiting AgentState = "waiting" // no route, retrying later
)

// Agent is a moving figure or ship.
type Agent struct {
	ID    uuid.UUID
	Owner string
	Kind  AgentKind
	Pos   hex.Axial
	State AgentState

	HasGoal  bool
	Goal     hex.Axial
	Route    []hex.Direction
	RoutePos int

	retryAt    uint64
	wanderLeft int
}

// Remaining returns the steps of the route not yet taken.
func (a *Agent) Remaining() []hex.Direction {
	if a.RoutePos >= len(a.Route) {
		return nil
	}
	return a.Route[a.RoutePos:]
}

func (a *Agent) clearRoute() {
	a.Route = nil
	a.RoutePos = 0
}
