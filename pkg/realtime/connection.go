package realtime

import (
	"sync"
	"time"
)

// State describes a connection's position in its lifecycle:
// Open (credential presented) -> Authenticated (identity verified) ->
// Active (eligible for topic subscriptions) -> Closed.
type State int32

const (
	StateOpen State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is a single message fanned out to connections joined to a topic.
type Event struct {
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Connection represents one live bidirectional connection. The owning user
// is fixed at authentication time and never changes for the connection's
// life. Transport layers consume Events and call Registry.Disconnect when
// the underlying transport fails or the peer goes away.
type Connection struct {
	id     string
	userID string

	mu     sync.RWMutex
	state  State
	events chan Event
	closed chan struct{}

	closeOnce sync.Once
}

func newConnection(id, userID string, bufferSize int) *Connection {
	return &Connection{
		id:     id,
		userID: userID,
		state:  StateOpen,
		events: make(chan Event, bufferSize),
		closed: make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Connection) ID() string { return c.id }

// UserID returns the authenticated owner of the connection.
func (c *Connection) UserID() string { return c.userID }

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Events returns the channel transports read delivered events from.
// The channel is closed when the connection closes.
func (c *Connection) Events() <-chan Event { return c.events }

// Closed returns a channel that is closed when the connection closes,
// for transports that select on it.
func (c *Connection) Closed() <-chan struct{} { return c.closed }

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// send delivers an event without blocking. A full buffer means the consumer
// is too slow; the event is dropped, matching the at-most-once best-effort
// contract.
func (c *Connection) send(ev Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == StateClosed {
		return false
	}

	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		close(c.closed)
		close(c.events)
		c.mu.Unlock()
	})
}
