package alerts

import (
	"context"
	"time"
)

// Storage persists alerts. Status transitions are compare-and-swap: they
// succeed only when the alert is still in the expected status, returning
// ErrAlertNotTransitionable otherwise. This is what makes the evaluator's
// claim step safe against concurrent sweeps.
type Storage interface {
	// CreatePriceAlert stores a new price alert.
	CreatePriceAlert(ctx context.Context, a PriceAlert) error

	// CreateAvailabilityAlert stores a new availability alert.
	CreateAvailabilityAlert(ctx context.Context, a AvailabilityAlert) error

	// GetPriceAlert retrieves a price alert owned by userID.
	GetPriceAlert(ctx context.Context, userID, id string) (*PriceAlert, error)

	// GetAvailabilityAlert retrieves an availability alert owned by userID.
	GetAvailabilityAlert(ctx context.Context, userID, id string) (*AvailabilityAlert, error)

	// ListPriceAlerts returns all price alerts of one user, newest first.
	ListPriceAlerts(ctx context.Context, userID string) ([]PriceAlert, error)

	// ListAvailabilityAlerts returns all availability alerts of one user,
	// newest first.
	ListAvailabilityAlerts(ctx context.Context, userID string) ([]AvailabilityAlert, error)

	// ActivePriceAlerts returns every price alert in StatusActive.
	ActivePriceAlerts(ctx context.Context) ([]PriceAlert, error)

	// ActiveAvailabilityAlerts returns every availability alert in
	// StatusActive.
	ActiveAvailabilityAlerts(ctx context.Context) ([]AvailabilityAlert, error)

	// TransitionPriceAlert atomically moves a price alert from one status
	// to another. Transitions into StatusClaimed record the claim instant;
	// transitions out of it clear it.
	TransitionPriceAlert(ctx context.Context, id string, from, to Status) error

	// TransitionAvailabilityAlert is TransitionPriceAlert for availability
	// alerts.
	TransitionAvailabilityAlert(ctx context.Context, id string, from, to Status) error

	// ExpireAvailabilityAlerts moves active availability alerts whose
	// check-in has passed the cutoff into StatusExpired and returns how
	// many were expired.
	ExpireAvailabilityAlerts(ctx context.Context, cutoff time.Time) (int64, error)

	// ReleaseStaleClaims returns alerts claimed before the cutoff to
	// StatusActive so a crashed evaluator cannot strand them, and reports
	// how many were released.
	ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error)
}
