package model

import "time"

// BookingStatus is the local appointment status vocabulary. External platform
// statuses are translated into this set by the sync mapper; the local set is
// deliberately smaller than any platform's.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking represents a scheduled appointment. At most one booking exists per
// external identifier (enforced by a unique constraint). CustomerID is empty
// when the external customer reference could not be resolved locally.
type Booking struct {
	ID            string        `json:"id"`
	ExternalID    string        `json:"external_id,omitempty"`
	ScheduledDate string        `json:"scheduled_date"` // YYYY-MM-DD
	StartTime     string        `json:"start_time"`     // HH:MM, local time
	Status        BookingStatus `json:"status"`
	CustomerID    string        `json:"customer_id,omitempty"`
	Price         float64       `json:"price,omitempty"` // locally managed, never synced
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
