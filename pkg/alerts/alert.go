package alerts

import "time"

// Status tracks an alert through its lifecycle. Active alerts are picked up
// by sweeps; claimed is a short-lived evaluator lease; triggered, cancelled
// and expired are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusClaimed   Status = "claimed"
	StatusTriggered Status = "triggered"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusTriggered, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// PriceAlert fires when a campsite's price for the requested equipment type
// drops to or below the target.
type PriceAlert struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	CampsiteID    string     `json:"campsite_id"`
	TargetPrice   float64    `json:"target_price"`
	EquipmentType string     `json:"equipment_type"`
	Status        Status     `json:"status"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AvailabilityAlert fires when every date from CheckIn through CheckOut
// inclusive has the requested equipment type available. Partial coverage
// never triggers.
type AvailabilityAlert struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	CampsiteID    string     `json:"campsite_id"`
	CheckIn       time.Time  `json:"check_in"`
	CheckOut      time.Time  `json:"check_out"`
	EquipmentType string     `json:"equipment_type"`
	Status        Status     `json:"status"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Dates returns each date of the alert's stay, check-in through check-out
// inclusive.
func (a *AvailabilityAlert) Dates() []time.Time {
	var dates []time.Time
	for d := a.CheckIn; !d.After(a.CheckOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
