// Package notifcenter provides durable user notifications with cached
// unread counts, live push to connected clients, and email escalation for
// urgent notifications.
//
// The durable write through Storage is the source of truth. Everything
// else — the cached unread counter, the realtime push, the email channel —
// is a side effect that degrades gracefully: failures are logged and never
// surfaced to the caller of Create.
//
// Basic usage:
//
//	center, err := notifcenter.New(
//		notifcenter.NewPostgresStorage(pool),
//		cache,
//		notifcenter.WithPublisher(registry),
//		notifcenter.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	n, err := center.Create(ctx, notifcenter.CreateParams{
//		UserID:   userID,
//		Type:     notifcenter.TypeBookingConfirmed,
//		Priority: notifcenter.PriorityHigh,
//		Title:    "Booking confirmed",
//		Message:  "Your stay at Pine Hollow is confirmed.",
//	})
//
// Unread counts are cache-aside: reads go through the cache with a short
// TTL, and every mutation (create, mark read, delete) invalidates the
// cached entry so the next read recomputes from storage.
//
// Storage backends: PostgresStorage for relational deployments,
// MongoStorage for document deployments, and MemoryStorage for tests and
// local development.
package notifcenter
