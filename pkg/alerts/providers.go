package alerts

import (
	"context"
	"time"
)

// PriceProvider exposes current campsite pricing. Implementations return
// ErrCampsiteNotFound when the campsite no longer exists; any other error
// is treated as transient and the alert is retried next sweep.
type PriceProvider interface {
	CurrentPrice(ctx context.Context, campsiteID, equipmentType string) (float64, error)
}

// DateAvailability reports whether one date can be booked.
type DateAvailability struct {
	Date      time.Time
	Available bool
}

// AvailabilityProvider exposes per-date campsite availability for a stay,
// check-in through check-out inclusive. The returned slice may cover fewer
// dates than requested; the evaluator treats a missing date as unavailable.
type AvailabilityProvider interface {
	Availability(ctx context.Context, campsiteID, equipmentType string, checkIn, checkOut time.Time) ([]DateAvailability, error)
}
