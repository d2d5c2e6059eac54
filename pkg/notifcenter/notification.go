package notifcenter

import (
	"time"
)

// Type classifies a notification by its originating event.
type Type string

const (
	TypeBookingConfirmed Type = "booking_confirmed"
	TypeBookingCancelled Type = "booking_cancelled"
	TypePaymentFailed    Type = "payment_failed"
	TypePriceDrop        Type = "price_drop"
	TypeAvailability     Type = "availability_alert"
	TypeWeatherWarning   Type = "weather_warning"
	TypeTripReminder     Type = "trip_reminder"
	TypeSystem           Type = "system"
	TypeAIRecommendation Type = "ai_recommendation"
)

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeBookingConfirmed, TypeBookingCancelled, TypePaymentFailed,
		TypePriceDrop, TypeAvailability, TypeWeatherWarning,
		TypeTripReminder, TypeSystem, TypeAIRecommendation:
		return true
	}
	return false
}

// Priority orders notifications by urgency. Urgent notifications are
// additionally escalated to email when an escalator is configured.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is the durable record delivered to a single user. The read
// flag is monotonic: once read, a notification never becomes unread again.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// IsExpired reports whether the notification has passed its expiry instant.
func (n *Notification) IsExpired() bool {
	return n.ExpiresAt != nil && time.Now().After(*n.ExpiresAt)
}

func (n *Notification) markRead(at time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	n.ReadAt = &at
}
