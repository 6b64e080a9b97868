// Package simulation moves agents across the game map frame by frame,
// validating their stored routes each step and searching again when a
// route breaks.
package simulation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/metrics"
	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/internal/routecache"
	"github.com/gravitas-games/freepath/internal/routing"
	"github.com/gravitas-games/freepath/pkg/hex"
)

var (
	ErrUnknownAgent  = errors.New("unknown agent")
	ErrTooManyAgents = errors.New("agent limit reached")
	ErrBadPosition   = errors.New("agent cannot stand there")
	ErrUnknownKind   = errors.New("unknown agent kind")
)

// Options configures a World.
type Options struct {
	Pathfinding config.PathfindingConfig
	MaxAgents   int
	Seed        int64
	Cache       routecache.Cache
	Bus         EventBus
}

// World owns the map, the router and all agents. It is the frame clock
// of its router. World is not safe for concurrent use.
type World struct {
	router *routing.Router
	opts   Options
	bus    EventBus
	frame  uint64

	agents map[uuid.UUID]*Agent
	order  []uuid.UUID
}

// NewWorld creates a world on gm.
func NewWorld(gm *gamemap.GameMap, opts Options) *World {
	w := &World{
		opts:   opts,
		bus:    opts.Bus,
		agents: make(map[uuid.UUID]*Agent),
	}
	if w.bus == nil {
		w.bus = NewNullEventBus()
	}
	routerOpts := []routing.Option{routing.WithSeed(opts.Seed)}
	if opts.Cache != nil {
		routerOpts = append(routerOpts, routing.WithCache(opts.Cache))
	}
	w.router = routing.NewRouter(gm, opts.Pathfinding, w, routerOpts...)
	return w
}

// CurrentFrame implements pathfinding.Clock.
func (w *World) CurrentFrame() uint64 { return w.frame }

// Router returns the world's router.
func (w *World) Router() *routing.Router { return w.router }

// Map returns the world's map.
func (w *World) Map() *gamemap.GameMap { return w.router.Map() }

// Spawn places a new agent at pos.
func (w *World) Spawn(owner string, kind AgentKind, pos hex.Axial) (*Agent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if w.opts.MaxAgents > 0 && len(w.agents) >= w.opts.MaxAgents {
		return nil, ErrTooManyAgents
	}
	pos, ok := w.Map().Normalize(pos)
	if !ok || !w.router.Checker(kind.movement()).IsNodeOk(pos) {
		return nil, fmt.Errorf("%w: %s at %v", ErrBadPosition, kind, pos)
	}

	a := &Agent{ID: uuid.New(), Owner: owner, Kind: kind, Pos: pos, State: StateIdle}
	w.agents[a.ID] = a
	idx, _ := slices.BinarySearchFunc(w.order, a.ID, compareIDs)
	w.order = slices.Insert(w.order, idx, a.ID)

	w.publish(EventAgentSpawned, a, map[string]any{"kind": string(kind)})
	return a, nil
}

// Remove deletes an agent.
func (w *World) Remove(id uuid.UUID) error {
	a, ok := w.agents[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	delete(w.agents, id)
	if idx, found := slices.BinarySearchFunc(w.order, id, compareIDs); found {
		w.order = slices.Delete(w.order, idx, idx+1)
	}
	w.publish(EventAgentRemoved, a, nil)
	return nil
}

// RemoveOwner deletes all agents of an owner.
func (w *World) RemoveOwner(owner string) {
	for _, id := range slices.Clone(w.order) {
		if w.agents[id].Owner == owner {
			_ = w.Remove(id)
		}
	}
}

// Agent returns the agent with the given id.
func (w *World) Agent(id uuid.UUID) (*Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// Agents returns all agents in id order.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.agents[id])
	}
	return out
}

// SetGoal sends an agent to goal. The route is searched on the next step.
func (w *World) SetGoal(id uuid.UUID, goal hex.Axial) error {
	a, ok := w.agents[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	goal, ok = w.Map().Normalize(goal)
	if !ok {
		return fmt.Errorf("%w: %v", gamemap.ErrOutOfBounds, goal)
	}
	a.Goal, a.HasGoal = goal, true
	a.clearRoute()
	a.retryAt = 0
	return nil
}

// Step advances the world by one frame.
func (w *World) Step(ctx context.Context) {
	w.frame++
	for _, id := range w.order {
		w.stepAgent(ctx, w.agents[id])
	}
	w.publishCounts()
	metrics.IncFrames()
}

func (w *World) stepAgent(ctx context.Context, a *Agent) {
	if !a.HasGoal {
		w.wander(a)
		return
	}
	if a.Pos == a.Goal {
		w.arrive(a)
		return
	}
	if a.State == StateWaiting && w.frame < a.retryAt {
		return
	}

	kind := a.Kind.movement()
	if len(a.Remaining()) > 0 {
		st := w.router.CheckRoute(kind, a.Pos, a.Route, a.RoutePos)
		if !st.Valid {
			w.publish(EventRouteBroken, a, map[string]any{"broken_at": st.BrokenAt})
			a.clearRoute()
		}
	}
	if len(a.Remaining()) == 0 && !w.plan(ctx, a) {
		a.State = StateWaiting
		a.retryAt = w.frame + uint64(w.opts.Pathfinding.RetryFrames)
		w.publish(EventPathNotFound, a, map[string]any{"goal": a.Goal})
		return
	}

	dir := a.Route[a.RoutePos]
	a.RoutePos++
	w.move(a, dir)
	if a.Pos == a.Goal {
		w.arrive(a)
	}
}

// plan searches a fresh route for a.
func (w *World) plan(ctx context.Context, a *Agent) bool {
	var (
		res pathfinding.Result
		ok  bool
	)
	switch a.Kind {
	case KindShip:
		res, ok = w.router.FindShipPath(a.Pos, a.Goal)
	case KindSoldier:
		// soldiers of one troop spread over equivalent routes
		res, ok = w.router.FindHumanRoute(a.Pos, a.Goal, true)
	default:
		res, ok = w.router.CachedHumanRoute(ctx, a.Pos, a.Goal)
	}
	if !ok {
		if w.opts.Pathfinding.DebugLevel >= 1 {
			log.Printf("Agent %s found no route %v -> %v", a.ID, a.Pos, a.Goal)
		}
		return false
	}
	a.Route = res.Route
	a.RoutePos = 0
	return true
}

func (w *World) move(a *Agent, dir hex.Direction) {
	from := a.Pos
	a.Pos = w.Map().Neighbor(a.Pos, dir)
	a.State = StateMoving
	w.publish(EventAgentMoved, a, map[string]any{"from": from, "dir": dir})
}

func (w *World) arrive(a *Agent) {
	a.HasGoal = false
	a.clearRoute()
	a.State = StateIdle
	a.wanderLeft = w.opts.Pathfinding.WanderSteps
	w.publish(EventAgentArrived, a, nil)
}

// wander lets an idle agent without goal take a few random steps.
func (w *World) wander(a *Agent) {
	a.State = StateIdle
	if a.wanderLeft <= 0 || a.Kind == KindShip {
		return
	}
	a.wanderLeft--
	salt := w.frame ^ uint64(a.ID.ID())
	if dir, ok := w.router.WanderDirection(a.Pos, salt); ok {
		w.move(a, dir)
		a.State = StateIdle
	}
}

func (w *World) publish(t EventType, a *Agent, data map[string]any) {
	w.bus.Publish(Event{
		Type:      t,
		AgentID:   a.ID,
		Owner:     a.Owner,
		Frame:     w.frame,
		Pos:       a.Pos,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (w *World) publishCounts() {
	counts := map[AgentState]int{StateIdle: 0, StateMoving: 0, StateWaiting: 0}
	for _, a := range w.agents {
		counts[a.State]++
	}
	for state, n := range counts {
		metrics.SetAgents(string(state), n)
	}
}

func compareIDs(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }
