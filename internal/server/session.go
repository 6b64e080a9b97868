package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/network"
	"github.com/gravitas-games/freepath/internal/routecache"
	"github.com/gravitas-games/freepath/internal/simulation"
	"github.com/gravitas-games/freepath/pkg/models"
)

// Session represents a shared world and the players connected to it
type Session struct {
	ID        string
	CreatedAt time.Time

	// Player management
	players     map[string]*models.Player // playerID -> Player
	connections map[string]*Connection    // playerID -> Connection
	mu          sync.RWMutex

	// World state; every access goes through Do
	world   *simulation.World
	bus     *simulation.SimpleEventBus
	worldMu sync.Mutex
	tick    int64
	state   string

	// Configuration
	config *config.Config
}

// SessionStatus represents the current state of the session
type SessionStatus struct {
	State       string `json:"state"` // "waiting", "running", "stopped"
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	AgentCount  int    `json:"agent_count"`
	ServerTick  int64  `json:"server_tick"`
	Uptime      int64  `json:"uptime"` // seconds
}

// NewSession creates a new session with a fresh world. cache may be nil;
// routes are stored under the session id.
func NewSession(cfg *config.Config, cache routecache.Cache) (*Session, error) {
	id := uuid.NewString()
	log.Printf("Creating session: %s", id)

	gameMap, err := newWorldMap(cfg.World)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache = routecache.Scoped(cache, id)
	}

	bus := simulation.NewSimpleEventBus()
	world := simulation.NewWorld(gameMap, simulation.Options{
		Pathfinding: cfg.Pathfinding,
		MaxAgents:   cfg.Session.MaxAgents,
		Seed:        cfg.World.Seed,
		Cache:       cache,
		Bus:         bus,
	})

	session := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		world:       world,
		bus:         bus,
		state:       "waiting",
		config:      cfg,
	}

	log.Printf("Session %s created with a %dx%d map", id, gameMap.Width(), gameMap.Height())
	return session, nil
}

func newWorldMap(cfg config.WorldConfig) (*gamemap.GameMap, error) {
	if len(cfg.Layout) > 0 {
		return gamemap.ParseLayout(cfg.Layout, cfg.Wrap)
	}
	return gamemap.New(cfg.Width, cfg.Height, cfg.Wrap)
}

// Do runs fn with exclusive access to the world.
func (s *Session) Do(fn func(w *simulation.World)) {
	s.worldMu.Lock()
	defer s.worldMu.Unlock()
	fn(s.world)
}

// Run advances the world at the configured tick rate until ctx is done.
func (s *Session) Run(ctx context.Context) {
	rate := s.config.Server.TickRate
	if rate <= 0 {
		log.Printf("Session %s has tick rate %d, simulation disabled", s.ID, rate)
		return
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	s.Do(func(*simulation.World) { s.state = "running" })
	log.Printf("Session %s running at %d Hz", s.ID, rate)

	for {
		select {
		case <-ctx.Done():
			s.Do(func(*simulation.World) { s.state = "stopped" })
			log.Printf("Session %s stopped at tick %d", s.ID, s.tick)
			return
		case <-ticker.C:
			s.Step(ctx)
		}
	}
}

// Step advances the world by one frame.
func (s *Session) Step(ctx context.Context) {
	s.Do(func(w *simulation.World) {
		w.Step(ctx)
		s.tick++
	})
}

// AddPlayer adds a player to the session
func (s *Session) AddPlayer(player *models.Player, conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) >= s.config.Session.MaxPlayers {
		return errSessionFull
	}
	s.players[player.ID] = player
	s.connections[player.ID] = conn

	// events of the player's agents go straight to the connection
	s.bus.Subscribe(player.ID, func(e simulation.Event) {
		conn.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypeAgentEvent,
			Payload: agentEventPayload(s.world, e),
		})
	})

	log.Printf("Player %s (%s) joined session %s", player.Username, player.ID, s.ID)
	return nil
}

// RemovePlayer removes a player and their agents from the session
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	player, exists := s.players[playerID]
	if exists {
		delete(s.players, playerID)
		delete(s.connections, playerID)
	}
	s.mu.Unlock()
	if !exists {
		return
	}

	s.bus.Unsubscribe(playerID)
	s.Do(func(w *simulation.World) { w.RemoveOwner(playerID) })
	log.Printf("Player %s (%s) left session %s", player.Username, playerID, s.ID)
}

// GetPlayer retrieves a player by ID
func (s *Session) GetPlayer(playerID string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	return player, exists
}

// BroadcastMessage sends a message to all connected players
func (s *Session) BroadcastMessage(msg *network.ServerMessage) {
	s.BroadcastExcept(nil, msg)
}

// BroadcastExcept sends a message to all players except the specified connection
func (s *Session) BroadcastExcept(exclude *Connection, msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		if conn != exclude {
			conn.SendMessage(msg)
		}
	}
}

// GetStatus returns the current session status
func (s *Session) GetStatus() SessionStatus {
	s.mu.RLock()
	status := SessionStatus{
		PlayerCount: len(s.players),
		MaxPlayers:  s.config.Session.MaxPlayers,
	}
	s.mu.RUnlock()

	s.Do(func(w *simulation.World) {
		status.State = s.state
		status.ServerTick = s.tick
		status.AgentCount = len(w.Agents())
	})
	status.Uptime = int64(time.Since(s.CreatedAt).Seconds())
	return status
}
