package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campsignal/campsignal/pkg/logger"
	"github.com/campsignal/campsignal/pkg/notifcenter"
)

// Notifier creates the notification an alert fires. Satisfied by
// notifcenter.Center.
type Notifier interface {
	Create(ctx context.Context, params notifcenter.CreateParams) (*notifcenter.Notification, error)
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Evaluated int
	Triggered int
	Cancelled int
	Skipped   int
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the logger for per-alert failures.
func WithEvaluatorLogger(log *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClaimTimeout overrides how long an alert may stay claimed before the
// expiry sweep returns it to active.
func WithClaimTimeout(d time.Duration) EvaluatorOption {
	return func(e *Evaluator) {
		if d > 0 {
			e.claimTimeout = d
		}
	}
}

// Evaluator runs the periodic sweeps that match active alerts against live
// campsite data and fire notifications.
//
// Each satisfied alert is processed claim-first: the alert is moved
// active -> claimed by compare-and-swap, the notification is created, and
// only then is the alert marked triggered. Two evaluators racing on the
// same alert cannot both claim it, so at most one notification is created
// per satisfaction. If notification delivery fails the claim is released
// and the next sweep retries.
type Evaluator struct {
	storage      Storage
	prices       PriceProvider
	availability AvailabilityProvider
	notifier     Notifier

	claimTimeout time.Duration
	log          *slog.Logger
}

// NewEvaluator creates an evaluator over the given storage, data providers
// and notifier.
func NewEvaluator(storage Storage, prices PriceProvider, availability AvailabilityProvider, notifier Notifier, opts ...EvaluatorOption) (*Evaluator, error) {
	if storage == nil {
		return nil, errors.New("alerts: storage is required")
	}
	if prices == nil {
		return nil, errors.New("alerts: price provider is required")
	}
	if availability == nil {
		return nil, errors.New("alerts: availability provider is required")
	}
	if notifier == nil {
		return nil, errors.New("alerts: notifier is required")
	}

	e := &Evaluator{
		storage:      storage,
		prices:       prices,
		availability: availability,
		notifier:     notifier,
		claimTimeout: 15 * time.Minute,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunPriceSweep evaluates every active price alert. A failure on one alert
// is logged and the sweep continues; the alert keeps its status and is
// retried next cycle.
func (e *Evaluator) RunPriceSweep(ctx context.Context) (SweepResult, error) {
	active, err := e.storage.ActivePriceAlerts(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("load active price alerts: %w", err)
	}

	result := SweepResult{Evaluated: len(active)}
	for _, alert := range active {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.evaluatePriceAlert(ctx, alert, &result)
	}
	return result, nil
}

func (e *Evaluator) evaluatePriceAlert(ctx context.Context, alert PriceAlert, result *SweepResult) {
	price, err := e.prices.CurrentPrice(ctx, alert.CampsiteID, alert.EquipmentType)
	if errors.Is(err, ErrCampsiteNotFound) {
		// The campsite is gone; the alert can never fire.
		e.cancelOrphanedPriceAlert(ctx, alert)
		result.Cancelled++
		return
	}
	if err != nil {
		e.log.WarnContext(ctx, "price fetch failed, alert retried next sweep",
			logger.Component("alerts"),
			logger.AlertID(alert.ID),
			logger.CampsiteID(alert.CampsiteID),
			logger.Error(err))
		result.Skipped++
		return
	}

	if price > alert.TargetPrice {
		return
	}

	params := notifcenter.CreateParams{
		UserID:   alert.UserID,
		Type:     notifcenter.TypePriceDrop,
		Priority: notifcenter.PriorityHigh,
		Title:    "Price drop alert",
		Message: fmt.Sprintf("A %s site now costs %.2f, at or below your target of %.2f.",
			alert.EquipmentType, price, alert.TargetPrice),
		Data: map[string]any{
			"alert_id":       alert.ID,
			"campsite_id":    alert.CampsiteID,
			"equipment_type": alert.EquipmentType,
			"current_price":  price,
			"target_price":   alert.TargetPrice,
		},
	}
	if e.trigger(ctx, alert.ID, alert.UserID, e.storage.TransitionPriceAlert, params) {
		result.Triggered++
	} else {
		result.Skipped++
	}
}

// RunAvailabilitySweep evaluates every active availability alert. An alert
// fires only when every date of the stay, check-out inclusive, has the
// requested equipment type available.
func (e *Evaluator) RunAvailabilitySweep(ctx context.Context) (SweepResult, error) {
	active, err := e.storage.ActiveAvailabilityAlerts(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("load active availability alerts: %w", err)
	}

	result := SweepResult{Evaluated: len(active)}
	for _, alert := range active {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.evaluateAvailabilityAlert(ctx, alert, &result)
	}
	return result, nil
}

func (e *Evaluator) evaluateAvailabilityAlert(ctx context.Context, alert AvailabilityAlert, result *SweepResult) {
	days, err := e.availability.Availability(ctx, alert.CampsiteID, alert.EquipmentType, alert.CheckIn, alert.CheckOut)
	if errors.Is(err, ErrCampsiteNotFound) {
		e.cancelOrphanedAvailabilityAlert(ctx, alert)
		result.Cancelled++
		return
	}
	if err != nil {
		e.log.WarnContext(ctx, "availability fetch failed, alert retried next sweep",
			logger.Component("alerts"),
			logger.AlertID(alert.ID),
			logger.CampsiteID(alert.CampsiteID),
			logger.Error(err))
		result.Skipped++
		return
	}

	if !coversEveryDate(alert, days) {
		return
	}

	params := notifcenter.CreateParams{
		UserID:   alert.UserID,
		Type:     notifcenter.TypeAvailability,
		Priority: notifcenter.PriorityHigh,
		Title:    "Availability alert",
		Message: fmt.Sprintf("A %s site is available for your full stay, %s to %s.",
			alert.EquipmentType,
			alert.CheckIn.Format("2006-01-02"),
			alert.CheckOut.Format("2006-01-02")),
		Data: map[string]any{
			"alert_id":       alert.ID,
			"campsite_id":    alert.CampsiteID,
			"equipment_type": alert.EquipmentType,
			"check_in":       alert.CheckIn.Format("2006-01-02"),
			"check_out":      alert.CheckOut.Format("2006-01-02"),
		},
	}
	if e.trigger(ctx, alert.ID, alert.UserID, e.storage.TransitionAvailabilityAlert, params) {
		result.Triggered++
	} else {
		result.Skipped++
	}
}

// coversEveryDate reports whether every date of the stay, check-in through
// check-out inclusive, is marked available. A date absent from the provider
// response counts as unavailable.
func coversEveryDate(alert AvailabilityAlert, days []DateAvailability) bool {
	available := make(map[string]bool, len(days))
	for _, d := range days {
		if d.Available {
			available[d.Date.Format("2006-01-02")] = true
		}
	}
	for _, date := range alert.Dates() {
		if !available[date.Format("2006-01-02")] {
			return false
		}
	}
	return true
}

// trigger performs the claim, create, mark-triggered sequence for one
// satisfied alert. Provider evaluation is read-only, so the claim is taken
// only once the condition is known satisfied rather than before the fetch;
// a lease is never held through an external call, and at-most-once still
// holds because the notification side effect happens only under the claim.
// Returns true when the notification was created and the alert marked
// triggered.
func (e *Evaluator) trigger(ctx context.Context, alertID, userID string, transition func(context.Context, string, Status, Status) error, params notifcenter.CreateParams) bool {
	if err := transition(ctx, alertID, StatusActive, StatusClaimed); err != nil {
		if !errors.Is(err, ErrAlertNotTransitionable) && !errors.Is(err, ErrAlertNotFound) {
			e.log.ErrorContext(ctx, "failed to claim alert",
				logger.Component("alerts"),
				logger.AlertID(alertID),
				logger.Error(err))
		}
		return false
	}

	if _, err := e.notifier.Create(ctx, params); err != nil {
		e.log.ErrorContext(ctx, "alert notification failed, releasing claim",
			logger.Component("alerts"),
			logger.AlertID(alertID),
			logger.UserID(userID),
			logger.Error(err))
		if relErr := transition(ctx, alertID, StatusClaimed, StatusActive); relErr != nil {
			e.log.ErrorContext(ctx, "failed to release claim, stale-claim sweep will recover it",
				logger.Component("alerts"),
				logger.AlertID(alertID),
				logger.Error(relErr))
		}
		return false
	}

	if err := transition(ctx, alertID, StatusClaimed, StatusTriggered); err != nil {
		// The notification exists; leave the claim for the stale-claim
		// sweep rather than risk a duplicate by releasing.
		e.log.ErrorContext(ctx, "failed to mark alert triggered",
			logger.Component("alerts"),
			logger.AlertID(alertID),
			logger.Error(err))
		return false
	}

	e.log.InfoContext(ctx, "alert triggered",
		logger.Component("alerts"),
		logger.AlertID(alertID),
		logger.UserID(userID))
	return true
}

func (e *Evaluator) cancelOrphanedPriceAlert(ctx context.Context, alert PriceAlert) {
	if err := e.storage.TransitionPriceAlert(ctx, alert.ID, StatusActive, StatusCancelled); err != nil {
		e.log.WarnContext(ctx, "failed to cancel alert for missing campsite",
			logger.Component("alerts"),
			logger.AlertID(alert.ID),
			logger.Error(err))
		return
	}
	e.log.InfoContext(ctx, "cancelled alert for missing campsite",
		logger.Component("alerts"),
		logger.AlertID(alert.ID),
		logger.CampsiteID(alert.CampsiteID))
}

func (e *Evaluator) cancelOrphanedAvailabilityAlert(ctx context.Context, alert AvailabilityAlert) {
	if err := e.storage.TransitionAvailabilityAlert(ctx, alert.ID, StatusActive, StatusCancelled); err != nil {
		e.log.WarnContext(ctx, "failed to cancel alert for missing campsite",
			logger.Component("alerts"),
			logger.AlertID(alert.ID),
			logger.Error(err))
		return
	}
	e.log.InfoContext(ctx, "cancelled alert for missing campsite",
		logger.Component("alerts"),
		logger.AlertID(alert.ID),
		logger.CampsiteID(alert.CampsiteID))
}

// RunExpirySweep expires availability alerts whose check-in has passed and
// releases claims older than the claim timeout.
func (e *Evaluator) RunExpirySweep(ctx context.Context) (expired, released int64, err error) {
	expired, err = e.storage.ExpireAvailabilityAlerts(ctx, time.Now())
	if err != nil {
		return 0, 0, fmt.Errorf("expire availability alerts: %w", err)
	}

	released, err = e.storage.ReleaseStaleClaims(ctx, time.Now().Add(-e.claimTimeout))
	if err != nil {
		return expired, 0, fmt.Errorf("release stale claims: %w", err)
	}

	if expired > 0 || released > 0 {
		e.log.InfoContext(ctx, "expiry sweep finished",
			logger.Component("alerts"),
			slog.Int64("expired", expired),
			slog.Int64("released_claims", released))
	}
	return expired, released, nil
}
