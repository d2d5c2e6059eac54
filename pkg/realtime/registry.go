package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campsignal/campsignal/pkg/cachestore"
	"github.com/campsignal/campsignal/pkg/logger"
)

// UserTopic returns the per-user topic every authenticated connection is
// joined to implicitly.
func UserTopic(userID string) string {
	return "user:" + userID
}

// Registry tracks live connections, maps them to authenticated users, groups
// them into topics, and fans out events with per-user rate limiting.
//
// Delivery is at-most-once and best-effort: there is no persistence or
// replay, and an offline user never receives a missed event through this
// path. Durable notification state lives in the notification center; the
// registry only accelerates it.
type Registry struct {
	verifier TokenVerifier
	limiter  *RateLimiter
	log      *slog.Logger
	cfg      Config

	mu     sync.RWMutex
	conns  map[string]*Connection            // connection ID -> connection
	users  map[string]map[string]*Connection // user ID -> connection ID -> connection
	topics map[string]map[string]*Connection // topic -> connection ID -> connection
	closed bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates a connection registry. The cache store backs the
// per-user rate limiter so the ceiling holds across instances when a shared
// backend is used.
func NewRegistry(verifier TokenVerifier, cache cachestore.Store, cfg Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		verifier: verifier,
		limiter:  NewRateLimiter(cache, cfg.RateLimitCeiling, cfg.RateLimitWindow),
		log:      slog.Default(),
		cfg:      cfg,
		conns:    make(map[string]*Connection),
		users:    make(map[string]map[string]*Connection),
		topics:   make(map[string]map[string]*Connection),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect verifies the credential and admits a new connection. An invalid
// credential rejects the connection with ErrUnauthorized; nothing is
// registered. Admitted connections are joined to their user topic.
func (r *Registry) Connect(ctx context.Context, credential string) (*Connection, error) {
	userID, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		r.log.LogAttrs(ctx, slog.LevelInfo, "connection rejected",
			logger.Component("realtime"),
			logger.Error(err),
		)
		return nil, err
	}

	conn := newConnection(uuid.New().String(), userID, r.cfg.EventBufferSize)
	conn.setState(StateAuthenticated)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.close()
		return nil, ErrRegistryClosed{}
	}
	r.conns[conn.id] = conn
	if r.users[userID] == nil {
		r.users[userID] = make(map[string]*Connection)
	}
	r.users[userID][conn.id] = conn
	r.joinLocked(conn, UserTopic(userID))
	r.mu.Unlock()

	conn.setState(StateActive)

	r.log.LogAttrs(ctx, slog.LevelDebug, "connection admitted",
		logger.ConnectionID(conn.id),
		logger.UserID(userID),
	)
	return conn, nil
}

// Join subscribes the connection to a topic.
func (r *Registry) Join(connID, topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed{}
	}
	conn, ok := r.conns[connID]
	if !ok {
		return ErrConnectionNotFound{ID: connID}
	}
	if conn.State() == StateClosed {
		return ErrConnectionClosed{ID: connID}
	}
	r.joinLocked(conn, topic)
	return nil
}

func (r *Registry) joinLocked(conn *Connection, topic string) {
	if r.topics[topic] == nil {
		r.topics[topic] = make(map[string]*Connection)
	}
	r.topics[topic][conn.id] = conn
}

// Leave unsubscribes the connection from a topic. Leaving a topic the
// connection never joined is a no-op.
func (r *Registry) Leave(connID, topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.topics[topic]; ok {
		delete(conn, connID)
		if len(conn) == 0 {
			delete(r.topics, topic)
		}
	}
	if _, ok := r.conns[connID]; !ok {
		return ErrConnectionNotFound{ID: connID}
	}
	return nil
}

// Publish fans out an event to every connection currently joined to the
// topic. Delivery is at-most-once and best-effort: slow consumers and users
// over their rate ceiling are skipped silently. Connections that join after
// the snapshot is taken do not receive the event.
func (r *Registry) Publish(ctx context.Context, topic, eventName string, payload any) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrRegistryClosed{}
	}
	members := make([]*Connection, 0, len(r.topics[topic]))
	for _, conn := range r.topics[topic] {
		members = append(members, conn)
	}
	r.mu.RUnlock()

	if len(members) == 0 {
		return nil
	}

	ev := Event{
		Name:      eventName,
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	// One rate-limit decision per user per publish, not per connection.
	allowed := make(map[string]bool, len(members))
	for _, conn := range members {
		verdict, checked := allowed[conn.userID]
		if !checked {
			verdict = r.limiter.Allow(ctx, conn.userID, eventName)
			allowed[conn.userID] = verdict
			if !verdict {
				r.log.LogAttrs(ctx, slog.LevelDebug, "event dropped by rate limit",
					logger.UserID(conn.userID),
					logger.Event(eventName),
					logger.Topic(topic),
				)
			}
		}
		if !verdict {
			continue
		}

		if !conn.send(ev) {
			r.log.LogAttrs(ctx, slog.LevelDebug, "event dropped for slow consumer",
				logger.ConnectionID(conn.id),
				logger.Event(eventName),
				logger.Topic(topic),
			)
		}
	}

	return nil
}

// BroadcastToUser publishes an event on the user's own topic. Other
// subsystems use this to push ad hoc events through the same fan-out path.
func (r *Registry) BroadcastToUser(ctx context.Context, userID, eventName string, payload any) error {
	return r.Publish(ctx, UserTopic(userID), eventName, payload)
}

// IsUserOnline reports whether the user has at least one live connection.
func (r *Registry) IsUserOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// OnlineUserCount returns the number of distinct users with a live connection.
func (r *Registry) OnlineUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Disconnect removes the connection from all indexes and closes it. Safe to
// call for unknown IDs; transports call it on any transport failure.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if ok {
		r.removeLocked(conn)
	}
	r.mu.Unlock()

	if ok {
		conn.close()
	}
}

// removeLocked drops the connection from all indexes. Caller holds r.mu.
func (r *Registry) removeLocked(conn *Connection) {
	delete(r.conns, conn.id)

	if userConns, ok := r.users[conn.userID]; ok {
		delete(userConns, conn.id)
		if len(userConns) == 0 {
			delete(r.users, conn.userID)
		}
	}

	for topic, members := range r.topics {
		delete(members, conn.id)
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}
}

// Reconcile checks the membership indexes against the set of live
// connections and purges stale entries. It is a self-healing measure for
// missed disconnects, not a strict invariant; run it on a fixed interval.
func (r *Registry) Reconcile(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int
	for _, conn := range r.conns {
		if conn.State() == StateClosed {
			r.removeLocked(conn)
			purged++
		}
	}
	for topic, members := range r.topics {
		for id, conn := range members {
			if _, live := r.conns[id]; !live || conn.State() == StateClosed {
				delete(members, id)
				purged++
			}
		}
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}

	if purged > 0 {
		r.log.LogAttrs(ctx, slog.LevelInfo, "reconciled stale connection entries",
			logger.Component("realtime"),
			slog.Int("purged", purged),
		)
	}
	return nil
}

// Close eagerly closes every connection and rejects further operations.
// Bounded by the configured shutdown timeout.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.users = make(map[string]map[string]*Connection)
	r.topics = make(map[string]map[string]*Connection)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, conn := range conns {
			conn.close()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(r.cfg.ShutdownTimeout):
		return ErrShutdownTimeout{}
	}
}
