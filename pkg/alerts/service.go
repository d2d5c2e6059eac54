package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreatePriceAlertParams describes a price alert to create.
type CreatePriceAlertParams struct {
	UserID        string  `validate:"required"`
	CampsiteID    string  `validate:"required"`
	TargetPrice   float64 `validate:"required,gt=0"`
	EquipmentType string  `validate:"required,oneof=tent rv cabin glamping"`
}

// CreateAvailabilityAlertParams describes an availability alert to create.
type CreateAvailabilityAlertParams struct {
	UserID        string    `validate:"required"`
	CampsiteID    string    `validate:"required"`
	CheckIn       time.Time `validate:"required"`
	CheckOut      time.Time `validate:"required"`
	EquipmentType string    `validate:"required,oneof=tent rv cabin glamping"`
}

// Service owns the user-facing alert operations: create, cancel and list.
// Sweeping live data against alerts is the Evaluator's job.
type Service struct {
	storage  Storage
	validate *validator.Validate
}

// NewService creates an alert service on top of the given storage.
func NewService(storage Storage) (*Service, error) {
	if storage == nil {
		return nil, errors.New("alerts: storage is required")
	}
	return &Service{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// CreatePriceAlert validates and persists a new active price alert.
func (s *Service) CreatePriceAlert(ctx context.Context, params CreatePriceAlertParams) (*PriceAlert, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, errors.Join(ErrInvalidAlert, err)
	}

	a := PriceAlert{
		ID:            uuid.NewString(),
		UserID:        params.UserID,
		CampsiteID:    params.CampsiteID,
		TargetPrice:   params.TargetPrice,
		EquipmentType: params.EquipmentType,
		Status:        StatusActive,
		CreatedAt:     time.Now(),
	}
	if err := s.storage.CreatePriceAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("create price alert: %w", err)
	}
	return &a, nil
}

// CreateAvailabilityAlert validates and persists a new active availability
// alert. The stay must span at least one night and must not lie entirely in
// the past.
func (s *Service) CreateAvailabilityAlert(ctx context.Context, params CreateAvailabilityAlertParams) (*AvailabilityAlert, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, errors.Join(ErrInvalidAlert, err)
	}
	if !params.CheckOut.After(params.CheckIn) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidAlert)
	}
	if params.CheckOut.Before(time.Now()) {
		return nil, fmt.Errorf("%w: stay is entirely in the past", ErrInvalidAlert)
	}

	a := AvailabilityAlert{
		ID:            uuid.NewString(),
		UserID:        params.UserID,
		CampsiteID:    params.CampsiteID,
		CheckIn:       params.CheckIn,
		CheckOut:      params.CheckOut,
		EquipmentType: params.EquipmentType,
		Status:        StatusActive,
		CreatedAt:     time.Now(),
	}
	if err := s.storage.CreateAvailabilityAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("create availability alert: %w", err)
	}
	return &a, nil
}

// CancelPriceAlert cancels an active price alert owned by userID. A race
// with the evaluator resolves to whichever transition lands first; losing
// the race returns ErrAlertNotTransitionable.
func (s *Service) CancelPriceAlert(ctx context.Context, userID, id string) error {
	if _, err := s.storage.GetPriceAlert(ctx, userID, id); err != nil {
		return err
	}
	return s.storage.TransitionPriceAlert(ctx, id, StatusActive, StatusCancelled)
}

// CancelAvailabilityAlert cancels an active availability alert owned by
// userID.
func (s *Service) CancelAvailabilityAlert(ctx context.Context, userID, id string) error {
	if _, err := s.storage.GetAvailabilityAlert(ctx, userID, id); err != nil {
		return err
	}
	return s.storage.TransitionAvailabilityAlert(ctx, id, StatusActive, StatusCancelled)
}

// ListPriceAlerts returns all of the user's price alerts, newest first.
func (s *Service) ListPriceAlerts(ctx context.Context, userID string) ([]PriceAlert, error) {
	return s.storage.ListPriceAlerts(ctx, userID)
}

// ListAvailabilityAlerts returns all of the user's availability alerts,
// newest first.
func (s *Service) ListAvailabilityAlerts(ctx context.Context, userID string) ([]AvailabilityAlert, error) {
	return s.storage.ListAvailabilityAlerts(ctx, userID)
}
