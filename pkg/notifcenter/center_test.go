package notifcenter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campsignal/campsignal/pkg/cachestore"
	"github.com/campsignal/campsignal/pkg/notifcenter"
)

type capturedEvent struct {
	UserID  string
	Event   string
	Payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
	err    error
}

func (p *fakePublisher) BroadcastToUser(_ context.Context, userID, eventName string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{UserID: userID, Event: eventName, Payload: payload})
	return nil
}

func (p *fakePublisher) captured() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedEvent(nil), p.events...)
}

type fakeEscalator struct {
	mu    sync.Mutex
	sent  []string
	err   error
}

func (e *fakeEscalator) Escalate(_ context.Context, email string, _ notifcenter.Notification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, email)
	return nil
}

func newTestCenter(t *testing.T, opts ...notifcenter.Option) *notifcenter.Center {
	t.Helper()
	center, err := notifcenter.New(
		notifcenter.NewMemoryStorage(),
		cachestore.NewMemoryStore("test"),
		opts...,
	)
	require.NoError(t, err)
	return center
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil storage", func(t *testing.T) {
		t.Parallel()

		_, err := notifcenter.New(nil, cachestore.NewMemoryStore("test"))
		require.Error(t, err)
	})

	t.Run("nil cache", func(t *testing.T) {
		t.Parallel()

		_, err := notifcenter.New(notifcenter.NewMemoryStorage(), nil)
		require.Error(t, err)
	})
}

func TestCenter_Create(t *testing.T) {
	t.Parallel()

	t.Run("persists and pushes", func(t *testing.T) {
		t.Parallel()

		pub := &fakePublisher{}
		center := newTestCenter(t, notifcenter.WithPublisher(pub))

		n, err := center.Create(context.Background(), notifcenter.CreateParams{
			UserID:  "user-1",
			Type:    notifcenter.TypeBookingConfirmed,
			Title:   "Booking confirmed",
			Message: "See you at Pine Hollow.",
		})
		require.NoError(t, err)
		require.NotEmpty(t, n.ID)
		assert.Equal(t, notifcenter.PriorityMedium, n.Priority, "priority defaults to medium")
		assert.False(t, n.Read)

		stored, err := center.Get(context.Background(), "user-1", n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, stored.ID)

		events := pub.captured()
		require.Len(t, events, 1)
		assert.Equal(t, "user-1", events[0].UserID)
		assert.Equal(t, notifcenter.EventNotificationCreated, events[0].Event)
	})

	t.Run("validation failures persist nothing", func(t *testing.T) {
		t.Parallel()

		center := newTestCenter(t)

		cases := []notifcenter.CreateParams{
			{Type: notifcenter.TypeSystem, Title: "no user"},
			{UserID: "user-1", Type: "bogus", Title: "bad type"},
			{UserID: "user-1", Type: notifcenter.TypeSystem, Priority: "shrug", Title: "bad priority"},
			{UserID: "user-1", Type: notifcenter.TypeSystem},
		}
		for _, params := range cases {
			_, err := center.Create(context.Background(), params)
			require.ErrorIs(t, err, notifcenter.ErrInvalidNotification)
		}

		list, err := center.List(context.Background(), "user-1", notifcenter.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("publish failure does not fail create", func(t *testing.T) {
		t.Parallel()

		pub := &fakePublisher{err: errors.New("registry closed")}
		center := newTestCenter(t, notifcenter.WithPublisher(pub))

		n, err := center.Create(context.Background(), notifcenter.CreateParams{
			UserID: "user-1",
			Type:   notifcenter.TypeSystem,
			Title:  "maintenance window",
		})
		require.NoError(t, err)

		stored, err := center.Get(context.Background(), "user-1", n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, stored.ID)
	})
}

func TestCenter_Escalation(t *testing.T) {
	t.Parallel()

	resolver := func(_ context.Context, userID string) (string, error) {
		if userID == "user-no-email" {
			return "", nil
		}
		return userID + "@example.com", nil
	}

	t.Run("urgent is escalated", func(t *testing.T) {
		t.Parallel()

		esc := &fakeEscalator{}
		center := newTestCenter(t, notifcenter.WithEmailEscalation(esc, resolver))

		_, err := center.Create(context.Background(), notifcenter.CreateParams{
			UserID:   "user-1",
			Type:     notifcenter.TypePaymentFailed,
			Priority: notifcenter.PriorityUrgent,
			Title:    "Payment failed",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"user-1@example.com"}, esc.sent)
	})

	t.Run("non-urgent is not escalated", func(t *testing.T) {
		t.Parallel()

		esc := &fakeEscalator{}
		center := newTestCenter(t, notifcenter.WithEmailEscalation(esc, resolver))

		_, err := center.Create(context.Background(), notifcenter.CreateParams{
			UserID:   "user-1",
			Type:     notifcenter.TypeTripReminder,
			Priority: notifcenter.PriorityHigh,
			Title:    "Trip tomorrow",
		})
		require.NoError(t, err)
		assert.Empty(t, esc.sent)
	})

	t.Run("empty address skips escalation", func(t *testing.T) {
		t.Parallel()

		esc := &fakeEscalator{}
		center := newTestCenter(t, notifcenter.WithEmailEscalation(esc, resolver))

		_, err := center.Create(context.Background(), notifcenter.CreateParams{
			UserID:   "user-no-email",
			Type:     notifcenter.TypePaymentFailed,
			Priority: notifcenter.PriorityUrgent,
			Title:    "Payment failed",
		})
		require.NoError(t, err)
		assert.Empty(t, esc.sent)
	})

	t.Run("escalation failure does not fail create", func(t *testing.T) {
		t.Parallel()

		esc := &fakeEscalator{err: errors.New("postmark down")}
		center := newTestCenter(t, notifcenter.WithEmailEscalation(esc, resolver))

		n, err := center.Create(context.Background(), notifcenter.CreateParams{
			UserID:   "user-1",
			Type:     notifcenter.TypePaymentFailed,
			Priority: notifcenter.PriorityUrgent,
			Title:    "Payment failed",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, n.ID)
	})
}

func TestCenter_UnreadCount(t *testing.T) {
	t.Parallel()

	t.Run("counts and caches", func(t *testing.T) {
		t.Parallel()

		center := newTestCenter(t)
		ctx := context.Background()

		for range 3 {
			_, err := center.Create(ctx, notifcenter.CreateParams{
				UserID: "user-1",
				Type:   notifcenter.TypeSystem,
				Title:  "hello",
			})
			require.NoError(t, err)
		}

		count, err := center.UnreadCount(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = center.UnreadCount(ctx, "user-2")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("mutations invalidate the cache", func(t *testing.T) {
		t.Parallel()

		center := newTestCenter(t)
		ctx := context.Background()

		n1, err := center.Create(ctx, notifcenter.CreateParams{
			UserID: "user-1", Type: notifcenter.TypeSystem, Title: "one",
		})
		require.NoError(t, err)
		_, err = center.Create(ctx, notifcenter.CreateParams{
			UserID: "user-1", Type: notifcenter.TypeSystem, Title: "two",
		})
		require.NoError(t, err)

		count, err := center.UnreadCount(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, 2, count)

		require.NoError(t, center.MarkRead(ctx, "user-1", n1.ID))

		count, err = center.UnreadCount(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count, "cached count refreshed after mark read")

		affected, err := center.MarkAllRead(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		count, err = center.UnreadCount(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestCenter_MarkRead(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)
	ctx := context.Background()

	n, err := center.Create(ctx, notifcenter.CreateParams{
		UserID: "user-1", Type: notifcenter.TypeSystem, Title: "hello",
	})
	require.NoError(t, err)

	require.NoError(t, center.MarkRead(ctx, "user-1", n.ID))

	stored, err := center.Get(ctx, "user-1", n.ID)
	require.NoError(t, err)
	require.True(t, stored.Read)
	require.NotNil(t, stored.ReadAt)
	firstReadAt := *stored.ReadAt

	// Idempotent: second mark succeeds and keeps the original timestamp.
	require.NoError(t, center.MarkRead(ctx, "user-1", n.ID))
	stored, err = center.Get(ctx, "user-1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, firstReadAt, *stored.ReadAt)

	// Ownership scoping: someone else's ID behaves like a missing one.
	err = center.MarkRead(ctx, "user-2", n.ID)
	assert.ErrorIs(t, err, notifcenter.ErrNotificationNotFound)
}

func TestCenter_Delete(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)
	ctx := context.Background()

	n, err := center.Create(ctx, notifcenter.CreateParams{
		UserID: "user-1", Type: notifcenter.TypeSystem, Title: "hello",
	})
	require.NoError(t, err)

	err = center.Delete(ctx, "user-2", n.ID)
	require.ErrorIs(t, err, notifcenter.ErrNotificationNotFound)

	require.NoError(t, center.Delete(ctx, "user-1", n.ID))

	_, err = center.Get(ctx, "user-1", n.ID)
	assert.ErrorIs(t, err, notifcenter.ErrNotificationNotFound)
}

func TestCenter_RetentionSweep(t *testing.T) {
	t.Parallel()

	storage := notifcenter.NewMemoryStorage()
	center, err := notifcenter.New(storage, cachestore.NewMemoryStore("test"),
		notifcenter.WithRetentionHorizon(24*time.Hour))
	require.NoError(t, err)
	ctx := context.Background()

	// Old read notification: swept.
	oldRead := notifcenter.Notification{
		ID:        "old-read",
		UserID:    "user-1",
		Type:      notifcenter.TypeSystem,
		Priority:  notifcenter.PriorityLow,
		Title:     "old",
		Read:      true,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, storage.Create(ctx, oldRead))

	// Old but unread: never swept.
	oldUnread := oldRead
	oldUnread.ID = "old-unread"
	oldUnread.Read = false
	require.NoError(t, storage.Create(ctx, oldUnread))

	// Recent read: kept.
	recentRead := oldRead
	recentRead.ID = "recent-read"
	recentRead.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, storage.Create(ctx, recentRead))

	removed, err := center.RetentionSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = center.Get(ctx, "user-1", "old-read")
	assert.ErrorIs(t, err, notifcenter.ErrNotificationNotFound)
	_, err = center.Get(ctx, "user-1", "old-unread")
	assert.NoError(t, err)
	_, err = center.Get(ctx, "user-1", "recent-read")
	assert.NoError(t, err)
}
