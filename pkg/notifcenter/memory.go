package notifcenter

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation for development and
// tests.
type MemoryStorage struct {
	byUser map[string][]Notification
	mu     sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byUser: make(map[string][]Notification),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, n Notification) error {
	if n.ID == "" || n.UserID == "" {
		return ErrInvalidNotification
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.byUser[userID] {
		if n.ID == id {
			// Copy so callers cannot mutate stored state.
			out := n
			return &out, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.byUser[userID] {
		if n.IsExpired() {
			continue
		}
		if opts.OnlyUnread && n.Read {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		filtered = append(filtered, n)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := min(opts.Offset, len(filtered))
	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].markRead(time.Now())
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var affected int64
	list := s.byUser[userID]
	for i := range list {
		if !list[i].Read {
			list[i].markRead(now)
			affected++
		}
	}
	return affected, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			s.byUser[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if !n.Read && !n.IsExpired() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for userID, list := range s.byUser {
		kept := list[:0]
		for _, n := range list {
			if n.Read && n.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		s.byUser[userID] = kept
	}
	return removed, nil
}

var _ Storage = (*MemoryStorage)(nil)
