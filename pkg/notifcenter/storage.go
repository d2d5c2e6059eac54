package notifcenter

import (
	"context"
	"time"
)

// Storage persists notifications. Implementations must scope every
// operation to the owning user: an ID that exists but belongs to someone
// else behaves exactly like a missing one (ErrNotificationNotFound), so
// ownership can never leak through error shapes.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, n Notification) error

	// Get retrieves a single notification owned by userID.
	Get(ctx context.Context, userID, id string) (*Notification, error)

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks one notification as read. Marking an already-read
	// notification succeeds without effect.
	MarkRead(ctx context.Context, userID, id string) error

	// MarkAllRead marks every unread notification of the user as read and
	// returns how many were affected.
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// Delete removes one notification owned by userID.
	Delete(ctx context.Context, userID, id string) error

	// CountUnread returns the user's unread, unexpired notification count.
	CountUnread(ctx context.Context, userID string) (int, error)

	// DeleteReadBefore permanently removes read notifications created
	// before the cutoff and returns how many were removed.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListOptions filters and paginates notification listings.
type ListOptions struct {
	Limit      int  // Maximum notifications to return (0 = no limit)
	Offset     int  // Notifications to skip for pagination
	OnlyUnread bool // When true, only unread notifications are returned
	Type       Type // When set, only notifications of this type are returned
}
