package simulation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravitas-games/freepath/pkg/hex"
)

// EventType represents the type of agent event.
type EventType int

const (
	// EventAgentSpawned is emitted when an agent enters the world.
	EventAgentSpawned EventType = iota
	// EventAgentMoved is emitted for every step an agent takes.
	EventAgentMoved
	// EventAgentArrived is emitted when an agent reaches its goal.
	EventAgentArrived
	// EventRouteBroken is emitted when a stored route became invalid.
	EventRouteBroken
	// EventPathNotFound is emitted when no route to the goal exists.
	EventPathNotFound
	// EventAgentRemoved is emitted when an agent leaves the world.
	EventAgentRemoved
)

// String returns a human-readable representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventAgentSpawned:
		return "AgentSpawned"
	case EventAgentMoved:
		return "AgentMoved"
	case EventAgentArrived:
		return "AgentArrived"
	case EventRouteBroken:
		return "RouteBroken"
	case EventPathNotFound:
		return "PathNotFound"
	case EventAgentRemoved:
		return "AgentRemoved"
	default:
		return "Unknown"
	}
}

// Event represents an agent event.
type Event struct {
	Type      EventType      `json:"type"`
	AgentID   uuid.UUID      `json:"agent_id"`
	Owner     string         `json:"owner"`
	Frame     uint64         `json:"frame"`
	Pos       hex.Axial      `json:"pos"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventBus manages event subscriptions and delivery.
type EventBus interface {
	// Subscribe registers a handler for events of agents of an owner.
	Subscribe(owner string, handler func(Event))

	// Unsubscribe removes the handler for an owner.
	Unsubscribe(owner string)

	// Publish sends an event to subscribed handlers.
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus implementation.
// Handlers run synchronously on the simulation goroutine and must not block.
type SimpleEventBus struct {
	mu       sync.RWMutex
	handlers map[string]func(Event)
}

// NewSimpleEventBus creates a new event bus.
func NewSimpleEventBus() *SimpleEventBus {
	return &SimpleEventBus{handlers: make(map[string]func(Event))}
}

// Subscribe registers a handler for events of agents of an owner.
func (bus *SimpleEventBus) Subscribe(owner string, handler func(Event)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[owner] = handler
}

// Unsubscribe removes the handler for an owner.
func (bus *SimpleEventBus) Unsubscribe(owner string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.handlers, owner)
}

// Publish sends an event to the handler of the agent's owner.
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.RLock()
	handler, exists := bus.handlers[event.Owner]
	bus.mu.RUnlock()
	if exists {
		handler(event)
	}
}

// NullEventBus is an event bus that does nothing (for testing or when events not needed).
type NullEventBus struct{}

// NewNullEventBus creates a new null event bus.
func NewNullEventBus() *NullEventBus {
	return &NullEventBus{}
}

// Subscribe does nothing.
func (bus *NullEventBus) Subscribe(owner string, handler func(Event)) {}

// Unsubscribe does nothing.
func (bus *NullEventBus) Unsubscribe(owner string) {}

// Publish does nothing.
func (bus *NullEventBus) Publish(event Event) {}
