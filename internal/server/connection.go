package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/network"
	"github.com/gravitas-games/freepath/internal/simulation"
	"github.com/gravitas-games/freepath/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 65536
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	// WebSocket connection
	ws *websocket.Conn

	// Server reference
	server *Server

	// Player information (set after authentication)
	player *models.Player

	// Buffered channel for outbound messages
	send chan []byte

	sendMu sync.Mutex
	closed bool
	joined bool
}

// NewConnection creates a new connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		player: player,
		send:   make(chan []byte, 256),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	// Set up connection parameters
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Start read and write pumps
	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Failed to parse client message: %v", err)
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(c.server.ctx, &clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			// Server shutting down
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(ctx context.Context, msg *network.ClientMessage) {
	if c.server.config.Pathfinding.DebugLevel >= 1 {
		log.Printf("Received message type: %s from %s", msg.Type, c.player.ID)
	}

	switch msg.Type {
	case network.MsgTypeJoin:
		c.handleJoin()
	case network.MsgTypeLeave:
		c.handleLeave()
	case network.MsgTypePing:
		c.handlePing()
	default:
		if !c.joined {
			c.SendError("not_joined", "Join the session first")
			return
		}
		c.handleWorldMessage(ctx, msg)
	}
}

func (c *Connection) handleWorldMessage(ctx context.Context, msg *network.ClientMessage) {
	session := c.server.session
	switch msg.Type {
	case network.MsgTypeFindPath:
		var req network.FindPathPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		res, err := session.FindPath(ctx, req)
		c.reply(network.MsgTypePathResult, res, err)

	case network.MsgTypeCheckRoute:
		var req network.CheckRoutePayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		res, err := session.CheckRoute(ctx, req)
		c.reply(network.MsgTypeRouteStatus, res, err)

	case network.MsgTypeSpawnAgent:
		if !c.player.Can(models.PermSpawnAgents) {
			c.sendFailure(errNotPermitted)
			return
		}
		var req network.SpawnAgentPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		view, err := session.SpawnAgent(c.player, req)
		c.reply(network.MsgTypeAgentSpawned, view, err)

	case network.MsgTypeSetGoal:
		var req network.SetGoalPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		if err := session.SetGoal(c.player, req); err != nil {
			c.sendFailure(err)
		}

	case network.MsgTypeRemoveAgent:
		var req network.RemoveAgentPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		if err := session.RemoveAgent(c.player, req); err != nil {
			c.sendFailure(err)
		}

	case network.MsgTypeEditMap:
		if !c.player.Can(models.PermEditMap) {
			c.sendFailure(errNotPermitted)
			return
		}
		var req network.EditMapPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		change, err := session.EditMap(req)
		if err != nil {
			c.sendFailure(err)
			return
		}
		session.BroadcastMessage(&network.ServerMessage{Type: network.MsgTypeMapChanged, Payload: change})

	case network.MsgTypeGetMap:
		c.SendMessage(&network.ServerMessage{Type: network.MsgTypeMapState, Payload: session.MapState()})

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

func (c *Connection) decode(payload json.RawMessage, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		c.SendError("invalid_payload", err.Error())
		return false
	}
	return true
}

func (c *Connection) reply(msgType string, payload any, err error) {
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.SendMessage(&network.ServerMessage{Type: msgType, Payload: payload})
}

// sendFailure maps a request error onto an error code.
func (c *Connection) sendFailure(err error) {
	code := "request_failed"
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, errUnknownKind):
		code = "bad_request"
	case errors.Is(err, gamemap.ErrOutOfBounds), errors.Is(err, gamemap.ErrUnknownValue):
		code = "invalid_map_reference"
	case errors.Is(err, simulation.ErrUnknownAgent):
		code = "unknown_agent"
	case errors.Is(err, simulation.ErrTooManyAgents), errors.Is(err, simulation.ErrBadPosition), errors.Is(err, simulation.ErrUnknownKind):
		code = "spawn_failed"
	case errors.Is(err, errNotPermitted):
		code = "not_permitted"
	}
	c.SendError(code, err.Error())
}

// handleJoin handles player join requests
func (c *Connection) handleJoin() {
	if c.joined {
		c.SendError("already_joined", "Already joined")
		return
	}
	session := c.server.session

	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.player.SessionID = session.ID

	if err := session.AddPlayer(c.player, c); err != nil {
		log.Printf("Failed to add player to session: %v", err)
		c.SendError("join_failed", err.Error())
		return
	}
	c.joined = true

	status := session.GetStatus()
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:  c.player.ID,
			Username:  c.player.Username,
			SessionID: session.ID,
			SessionStatus: network.SessionStatus{
				State:       status.State,
				PlayerCount: status.PlayerCount,
				MaxPlayers:  status.MaxPlayers,
				AgentCount:  status.AgentCount,
				ServerTick:  status.ServerTick,
				Uptime:      status.Uptime,
			},
			Map: session.MapState(),
		},
	})

	session.BroadcastExcept(c, &network.ServerMessage{
		Type: network.MsgTypePlayerJoined,
		Payload: network.PlayerJoinedPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
		},
	})

	log.Printf("Player %s joined session %s", c.player.Username, session.ID)
}

// handleLeave handles player leave requests
func (c *Connection) handleLeave() {
	if !c.joined {
		return
	}
	c.joined = false
	c.server.session.RemovePlayer(c.player.ID)

	c.server.session.BroadcastMessage(&network.ServerMessage{
		Type: network.MsgTypePlayerLeft,
		Payload: network.PlayerLeftPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
		},
	})
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close closes the connection
func (c *Connection) Close() {
	c.handleLeave()

	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()

	c.ws.Close()
}
