package notifcenter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/campsignal/campsignal/pkg/cachestore"
	"github.com/campsignal/campsignal/pkg/logger"
)

// EventNotificationCreated is pushed to the owning user's topic whenever a
// notification is created. The payload is the full Notification.
const EventNotificationCreated = "notification.created"

// Publisher pushes events to a user's live connections. Satisfied by
// realtime.Registry. Delivery is best-effort; a publish error never fails
// the durable write that preceded it.
type Publisher interface {
	BroadcastToUser(ctx context.Context, userID, eventName string, payload any) error
}

// CreateParams describes a notification to create. ID, CreatedAt and read
// state are assigned by the Center.
type CreateParams struct {
	UserID    string
	Type      Type
	Priority  Priority
	Title     string
	Message   string
	Data      map[string]any
	ExpiresAt *time.Time
}

// Option configures a Center.
type Option func(*Center)

// WithLogger sets the logger for delivery and cache failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Center) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPublisher enables live push of created notifications.
func WithPublisher(pub Publisher) Option {
	return func(c *Center) { c.publisher = pub }
}

// WithEmailEscalation enables the urgent-priority email channel. Both the
// escalator and the resolver must be non-nil for escalation to happen.
func WithEmailEscalation(esc EmailEscalator, resolve EmailResolver) Option {
	return func(c *Center) {
		c.escalator = esc
		c.resolveEmail = resolve
	}
}

// WithUnreadCountTTL overrides the cached unread counter TTL.
func WithUnreadCountTTL(ttl time.Duration) Option {
	return func(c *Center) {
		if ttl > 0 {
			c.unreadTTL = ttl
		}
	}
}

// WithRetentionHorizon overrides how long read notifications are retained.
func WithRetentionHorizon(horizon time.Duration) Option {
	return func(c *Center) {
		if horizon > 0 {
			c.retention = horizon
		}
	}
}

// Center is the notification hub: it persists notifications, maintains a
// cached unread counter per user, pushes created notifications to live
// connections, and escalates urgent ones to email.
//
// The durable write is the source of truth. Live push and email escalation
// are side channels whose failures are logged, never returned.
type Center struct {
	storage   Storage
	cache     cachestore.Store
	publisher Publisher

	escalator    EmailEscalator
	resolveEmail EmailResolver

	unreadTTL time.Duration
	retention time.Duration
	log       *slog.Logger
}

// New creates a notification center on top of the given storage and cache.
func New(storage Storage, cache cachestore.Store, opts ...Option) (*Center, error) {
	if storage == nil {
		return nil, fmt.Errorf("notifcenter: storage is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("notifcenter: cache is required")
	}

	c := &Center{
		storage:   storage,
		cache:     cache,
		unreadTTL: 5 * time.Minute,
		retention: 30 * 24 * time.Hour,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func unreadCountKey(userID string) string {
	return "notifications:unread:" + userID
}

// Create validates and persists a notification, then fans it out: the
// user's cached unread count is invalidated, the notification is pushed to
// the user's live connections, and urgent notifications are additionally
// escalated to email.
func (c *Center) Create(ctx context.Context, params CreateParams) (*Notification, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidNotification)
	}
	if !params.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, params.Type)
	}
	if params.Priority == "" {
		params.Priority = PriorityMedium
	}
	if !params.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidNotification, params.Priority)
	}
	if params.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidNotification)
	}

	n := Notification{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		Type:      params.Type,
		Priority:  params.Priority,
		Title:     params.Title,
		Message:   params.Message,
		Data:      params.Data,
		CreatedAt: time.Now(),
		ExpiresAt: params.ExpiresAt,
	}

	if err := c.storage.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	c.invalidateUnread(ctx, n.UserID)
	c.push(ctx, n)
	c.escalate(ctx, n)

	return &n, nil
}

// Get retrieves a single notification owned by userID.
func (c *Center) Get(ctx context.Context, userID, id string) (*Notification, error) {
	return c.storage.Get(ctx, userID, id)
}

// List returns the user's notifications, newest first.
func (c *Center) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	return c.storage.List(ctx, userID, opts)
}

// MarkRead marks one notification as read and invalidates the cached
// unread count. Marking an already-read notification succeeds.
func (c *Center) MarkRead(ctx context.Context, userID, id string) error {
	if err := c.storage.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	c.invalidateUnread(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many were affected.
func (c *Center) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	affected, err := c.storage.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		c.invalidateUnread(ctx, userID)
	}
	return affected, nil
}

// Delete removes one notification owned by userID.
func (c *Center) Delete(ctx context.Context, userID, id string) error {
	if err := c.storage.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.invalidateUnread(ctx, userID)
	return nil
}

// UnreadCount returns the user's unread notification count, served from
// cache when warm. A cache failure falls through to storage.
func (c *Center) UnreadCount(ctx context.Context, userID string) (int, error) {
	raw, err := c.cache.GetOrCompute(ctx, unreadCountKey(userID), c.unreadTTL,
		func(ctx context.Context) ([]byte, error) {
			count, err := c.storage.CountUnread(ctx, userID)
			if err != nil {
				return nil, err
			}
			return []byte(strconv.Itoa(count)), nil
		})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	count, err := strconv.Atoi(string(raw))
	if err != nil {
		// Corrupt cache entry; drop it and recount from storage.
		c.cache.Delete(ctx, unreadCountKey(userID))
		return c.storage.CountUnread(ctx, userID)
	}
	return count, nil
}

// RetentionSweep deletes read notifications older than the retention
// horizon and returns how many were removed. Unread notifications are
// never swept.
func (c *Center) RetentionSweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-c.retention)
	removed, err := c.storage.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	if removed > 0 {
		c.log.InfoContext(ctx, "retention sweep removed read notifications",
			logger.Component("notifcenter"),
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff))
	}
	return removed, nil
}

func (c *Center) invalidateUnread(ctx context.Context, userID string) {
	c.cache.Delete(ctx, unreadCountKey(userID))
}

func (c *Center) push(ctx context.Context, n Notification) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.BroadcastToUser(ctx, n.UserID, EventNotificationCreated, n); err != nil {
		c.log.WarnContext(ctx, "live notification push failed",
			logger.Component("notifcenter"),
			logger.UserID(n.UserID),
			logger.NotificationID(n.ID),
			logger.Error(err))
	}
}

func (c *Center) escalate(ctx context.Context, n Notification) {
	if c.escalator == nil || c.resolveEmail == nil || n.Priority != PriorityUrgent {
		return
	}

	email, err := c.resolveEmail(ctx, n.UserID)
	if err != nil {
		c.log.WarnContext(ctx, "failed to resolve escalation address",
			logger.Component("notifcenter"),
			logger.UserID(n.UserID),
			logger.Error(err))
		return
	}
	if email == "" {
		return
	}

	if err := c.escalator.Escalate(ctx, email, n); err != nil {
		c.log.WarnContext(ctx, "urgent notification escalation failed",
			logger.Component("notifcenter"),
			logger.UserID(n.UserID),
			logger.NotificationID(n.ID),
			logger.Error(err))
	}
}
