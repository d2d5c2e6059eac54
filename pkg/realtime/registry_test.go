package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campsignal/campsignal/pkg/cachestore"
)

// staticVerifier admits any credential as-is; empty credentials are rejected.
type staticVerifier struct{}

func (staticVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrUnauthorized
	}
	return credential, nil
}

func testConfig() Config {
	return Config{
		EventBufferSize:   8,
		RateLimitCeiling:  30,
		RateLimitWindow:   time.Minute,
		ReconcileInterval: time.Minute,
		ShutdownTimeout:   time.Second,
	}
}

func newTestRegistry(t *testing.T, cfg Config) *Registry {
	t.Helper()
	r := NewRegistry(staticVerifier{}, cachestore.NewMemoryStore("test"), cfg)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func drain(conn *Connection) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestRegistry_Connect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admits verified credential", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t, testConfig())

		conn, err := r.Connect(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", conn.UserID())
		assert.Equal(t, StateActive, conn.State())
		assert.True(t, r.IsUserOnline("user-1"))
		assert.Equal(t, 1, r.OnlineUserCount())
	})

	t.Run("rejects invalid credential", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t, testConfig())

		_, err := r.Connect(ctx, "")
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 0, r.ConnectionCount())
	})

	t.Run("distinct users counted once per user", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t, testConfig())

		_, err := r.Connect(ctx, "user-1")
		require.NoError(t, err)
		_, err = r.Connect(ctx, "user-1")
		require.NoError(t, err)
		_, err = r.Connect(ctx, "user-2")
		require.NoError(t, err)

		assert.Equal(t, 2, r.OnlineUserCount())
		assert.Equal(t, 3, r.ConnectionCount())
	})
}

func TestRegistry_PublishMembership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry(t, testConfig())

	joined, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)
	left, err := r.Connect(ctx, "user-2")
	require.NoError(t, err)

	require.NoError(t, r.Join(joined.ID(), "campsite:42"))
	require.NoError(t, r.Join(left.ID(), "campsite:42"))
	require.NoError(t, r.Leave(left.ID(), "campsite:42"))

	require.NoError(t, r.Publish(ctx, "campsite:42", "price.changed", map[string]any{"price": 45}))

	// Joining after the publish must not deliver it retroactively.
	late, err := r.Connect(ctx, "user-3")
	require.NoError(t, err)
	require.NoError(t, r.Join(late.ID(), "campsite:42"))

	joinedEvents := drain(joined)
	require.Len(t, joinedEvents, 1)
	assert.Equal(t, "price.changed", joinedEvents[0].Name)
	assert.Equal(t, "campsite:42", joinedEvents[0].Topic)

	assert.Empty(t, drain(left), "a connection that left beforehand receives nothing")
	assert.Empty(t, drain(late), "a connection that joins afterward receives nothing")
}

func TestRegistry_PublishToEmptyTopic(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t, testConfig())

	// No subscribers is not an error.
	assert.NoError(t, r.Publish(context.Background(), "campsite:77", "noop", nil))
}

func TestRegistry_BroadcastToUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry(t, testConfig())

	first, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)
	second, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)
	other, err := r.Connect(ctx, "user-2")
	require.NoError(t, err)

	require.NoError(t, r.BroadcastToUser(ctx, "user-1", "booking.confirmed", nil))

	assert.Len(t, drain(first), 1)
	assert.Len(t, drain(second), 1)
	assert.Empty(t, drain(other))
}

func TestRegistry_RateLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := testConfig()
	cfg.RateLimitCeiling = 30
	// The buffer must hold the whole window so drops are attributable to the
	// limiter alone.
	cfg.EventBufferSize = 64
	r := newTestRegistry(t, cfg)

	conn, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)

	for range 31 {
		require.NoError(t, r.BroadcastToUser(ctx, "user-1", "price.changed", nil))
	}

	assert.Len(t, drain(conn), 30, "the 31st event inside the window must be dropped")

	// A different event name has its own counter.
	require.NoError(t, r.BroadcastToUser(ctx, "user-1", "availability.changed", nil))
	assert.Len(t, drain(conn), 1)
}

func TestRegistry_SlowConsumerDropsEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := testConfig()
	cfg.EventBufferSize = 2
	r := newTestRegistry(t, cfg)

	conn, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)

	for range 5 {
		require.NoError(t, r.BroadcastToUser(ctx, "user-1", "tick", nil))
	}

	assert.Len(t, drain(conn), 2, "overflow must be dropped, never block the publisher")
}

func TestRegistry_Disconnect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry(t, testConfig())

	conn, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, r.Join(conn.ID(), "campsite:1"))

	r.Disconnect(conn.ID())

	assert.Equal(t, StateClosed, conn.State())
	assert.False(t, r.IsUserOnline("user-1"))
	assert.Equal(t, 0, r.ConnectionCount())

	_, open := <-conn.Events()
	assert.False(t, open, "events channel must be closed on disconnect")

	// Unknown IDs are a no-op.
	r.Disconnect("missing")
}

func TestRegistry_Reconcile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRegistry(t, testConfig())

	conn, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, r.Join(conn.ID(), "campsite:1"))

	// Simulate a missed disconnect: the transport died without telling the
	// registry.
	conn.close()
	assert.True(t, r.IsUserOnline("user-1"), "stale entry before reconciliation")

	require.NoError(t, r.Reconcile(ctx))

	assert.False(t, r.IsUserOnline("user-1"))
	assert.Equal(t, 0, r.ConnectionCount())
}

func TestRegistry_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRegistry(staticVerifier{}, cachestore.NewMemoryStore("test"), testConfig())

	conn, err := r.Connect(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.Equal(t, StateClosed, conn.State())

	_, err = r.Connect(ctx, "user-2")
	assert.ErrorIs(t, err, ErrRegistryClosed{})

	err = r.Publish(ctx, "t", "e", nil)
	assert.ErrorIs(t, err, ErrRegistryClosed{})

	// Close is idempotent.
	assert.NoError(t, r.Close())
}
