package alerts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation for development and
// tests.
type MemoryStorage struct {
	price        map[string]*PriceAlert
	availability map[string]*AvailabilityAlert
	mu           sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory alert storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		price:        make(map[string]*PriceAlert),
		availability: make(map[string]*AvailabilityAlert),
	}
}

func (s *MemoryStorage) CreatePriceAlert(ctx context.Context, a PriceAlert) error {
	if a.ID == "" || a.UserID == "" {
		return ErrInvalidAlert
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.price[a.ID] = &a
	return nil
}

func (s *MemoryStorage) CreateAvailabilityAlert(ctx context.Context, a AvailabilityAlert) error {
	if a.ID == "" || a.UserID == "" {
		return ErrInvalidAlert
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability[a.ID] = &a
	return nil
}

func (s *MemoryStorage) GetPriceAlert(ctx context.Context, userID, id string) (*PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.price[id]
	if !ok || a.UserID != userID {
		return nil, ErrAlertNotFound
	}
	out := *a
	return &out, nil
}

func (s *MemoryStorage) GetAvailabilityAlert(ctx context.Context, userID, id string) (*AvailabilityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.availability[id]
	if !ok || a.UserID != userID {
		return nil, ErrAlertNotFound
	}
	out := *a
	return &out, nil
}

func (s *MemoryStorage) ListPriceAlerts(ctx context.Context, userID string) ([]PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []PriceAlert
	for _, a := range s.price {
		if a.UserID == userID {
			list = append(list, *a)
		}
	}
	sortNewestFirst(list, func(a PriceAlert) time.Time { return a.CreatedAt })
	return list, nil
}

func (s *MemoryStorage) ListAvailabilityAlerts(ctx context.Context, userID string) ([]AvailabilityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []AvailabilityAlert
	for _, a := range s.availability {
		if a.UserID == userID {
			list = append(list, *a)
		}
	}
	sortNewestFirst(list, func(a AvailabilityAlert) time.Time { return a.CreatedAt })
	return list, nil
}

func (s *MemoryStorage) ActivePriceAlerts(ctx context.Context) ([]PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []PriceAlert
	for _, a := range s.price {
		if a.Status == StatusActive {
			list = append(list, *a)
		}
	}
	sortNewestFirst(list, func(a PriceAlert) time.Time { return a.CreatedAt })
	return list, nil
}

func (s *MemoryStorage) ActiveAvailabilityAlerts(ctx context.Context) ([]AvailabilityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []AvailabilityAlert
	for _, a := range s.availability {
		if a.Status == StatusActive {
			list = append(list, *a)
		}
	}
	sortNewestFirst(list, func(a AvailabilityAlert) time.Time { return a.CreatedAt })
	return list, nil
}

func (s *MemoryStorage) TransitionPriceAlert(ctx context.Context, id string, from, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.price[id]
	if !ok {
		return ErrAlertNotFound
	}
	if a.Status != from {
		return ErrAlertNotTransitionable
	}
	a.Status = to
	updateClaimStamp(&a.ClaimedAt, to)
	return nil
}

func (s *MemoryStorage) TransitionAvailabilityAlert(ctx context.Context, id string, from, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.availability[id]
	if !ok {
		return ErrAlertNotFound
	}
	if a.Status != from {
		return ErrAlertNotTransitionable
	}
	a.Status = to
	updateClaimStamp(&a.ClaimedAt, to)
	return nil
}

func (s *MemoryStorage) ExpireAvailabilityAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired int64
	for _, a := range s.availability {
		if a.Status == StatusActive && a.CheckIn.Before(cutoff) {
			a.Status = StatusExpired
			expired++
		}
	}
	return expired, nil
}

func (s *MemoryStorage) ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var released int64
	for _, a := range s.price {
		if a.Status == StatusClaimed && a.ClaimedAt != nil && a.ClaimedAt.Before(cutoff) {
			a.Status = StatusActive
			a.ClaimedAt = nil
			released++
		}
	}
	for _, a := range s.availability {
		if a.Status == StatusClaimed && a.ClaimedAt != nil && a.ClaimedAt.Before(cutoff) {
			a.Status = StatusActive
			a.ClaimedAt = nil
			released++
		}
	}
	return released, nil
}

func updateClaimStamp(claimedAt **time.Time, to Status) {
	if to == StatusClaimed {
		now := time.Now()
		*claimedAt = &now
		return
	}
	*claimedAt = nil
}

func sortNewestFirst[T any](list []T, createdAt func(T) time.Time) {
	sort.SliceStable(list, func(i, j int) bool {
		return createdAt(list[i]).After(createdAt(list[j]))
	})
}

var _ Storage = (*MemoryStorage)(nil)
