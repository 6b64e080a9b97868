package network

import (
	"encoding/json"

	"github.com/gravitas-games/freepath/pkg/hex"
	"github.com/gravitas-games/freepath/pkg/models"
)

// Message types - Client → Server
const (
	MsgTypeJoin        = "join"
	MsgTypeLeave       = "leave"
	MsgTypePing        = "ping"
	MsgTypeFindPath    = "find_path"
	MsgTypeCheckRoute  = "check_route"
	MsgTypeSpawnAgent  = "spawn_agent"
	MsgTypeSetGoal     = "set_goal"
	MsgTypeRemoveAgent = "remove_agent"
	MsgTypeEditMap     = "edit_map"
	MsgTypeGetMap      = "get_map"
)

// Message types - Server → Client
const (
	MsgTypeWelcome       = "welcome"
	MsgTypePlayerJoined  = "player_joined"
	MsgTypePlayerLeft    = "player_left"
	MsgTypePathResult    = "path_result"
	MsgTypeRouteStatus   = "route_status"
	MsgTypeAgentSpawned  = "agent_spawned"
	MsgTypeAgentEvent    = "agent_event"
	MsgTypeMapChanged    = "map_changed"
	MsgTypeMapState      = "map_state"
	MsgTypeSessionStatus = "session_status"
	MsgTypeError         = "error"
	MsgTypePong          = "pong"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// FindPathPayload asks for a route search.
type FindPathPayload struct {
	RequestID   string    `json:"request_id,omitempty"`
	Kind        string    `json:"kind"` // human, ship, road, boat_road
	Start       hex.Axial `json:"start"`
	Dest        hex.Axial `json:"dest"`
	RandomRoute bool      `json:"random_route,omitempty"`
	FirstOnly   bool      `json:"first_only,omitempty"`
}

// CheckRoutePayload asks whether a stored route is still walkable.
type CheckRoutePayload struct {
	RequestID string          `json:"request_id,omitempty"`
	Kind      string          `json:"kind"`
	Start     hex.Axial       `json:"start"`
	Route     []hex.Direction `json:"route"`
	Pos       int             `json:"pos"`
}

// SpawnAgentPayload places a new agent.
type SpawnAgentPayload struct {
	Kind string     `json:"kind"` // worker, soldier, ship
	Pos  hex.Axial  `json:"pos"`
	Goal *hex.Axial `json:"goal,omitempty"`
}

// SetGoalPayload sends an agent somewhere.
type SetGoalPayload struct {
	AgentID string    `json:"agent_id"`
	Goal    hex.Axial `json:"goal"`
}

// RemoveAgentPayload deletes an agent.
type RemoveAgentPayload struct {
	AgentID string `json:"agent_id"`
}

// EditMapPayload changes one hex or edge. Empty fields are left alone.
type EditMapPayload struct {
	Pos     hex.Axial      `json:"pos"`
	Terrain string         `json:"terrain,omitempty"`
	Object  string         `json:"object,omitempty"`
	Dir     *hex.Direction `json:"dir,omitempty"` // edge edits only
	Road    string         `json:"road,omitempty"`
	Barrier *bool          `json:"barrier,omitempty"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	PlayerID      string          `json:"player_id"`
	Username      string          `json:"username"`
	SessionID     string          `json:"session_id"`
	SessionStatus SessionStatus   `json:"session_status"`
	Map           MapStatePayload `json:"map"`
}

// PlayerJoinedPayload notifies clients when a player joins
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// PlayerLeftPayload notifies clients when a player leaves
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// PathResultPayload answers find_path.
type PathResultPayload struct {
	RequestID string          `json:"request_id,omitempty"`
	Found     bool            `json:"found"`
	Route     []hex.Direction `json:"route,omitempty"`
	Length    int             `json:"length"`
	FirstDir  *hex.Direction  `json:"first_dir,omitempty"`
}

// RouteStatusPayload answers check_route.
type RouteStatusPayload struct {
	RequestID string    `json:"request_id,omitempty"`
	Valid     bool      `json:"valid"`
	End       hex.Axial `json:"end"`
	BrokenAt  int       `json:"broken_at"`
}

// AgentEventPayload forwards a simulation event to the agent's owner.
type AgentEventPayload struct {
	Event string           `json:"event"`
	Frame uint64           `json:"frame"`
	Agent models.AgentView `json:"agent"`
	Data  map[string]any   `json:"data,omitempty"`
}

// MapChangedPayload notifies clients of a map edit.
type MapChangedPayload struct {
	Pos      hex.Axial `json:"pos"`
	Symbol   string    `json:"symbol"`
	Revision uint64    `json:"revision"`
}

// MapStatePayload describes the whole map.
type MapStatePayload struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Wrap     bool     `json:"wrap"`
	Revision uint64   `json:"revision"`
	Layout   []string `json:"layout"`
}

// SessionStatus represents the current session state
type SessionStatus struct {
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	AgentCount  int    `json:"agent_count"`
	ServerTick  int64  `json:"server_tick"`
	Uptime      int64  `json:"uptime"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
