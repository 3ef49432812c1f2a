package model

// Service is a catalog item offered by the business, mirrored from the
// booking platform's service list.
type Service struct {
	ID              string `json:"id"`
	ExternalID      string `json:"external_id,omitempty"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	PriceCents      int    `json:"price_cents,omitempty"`
	Active          bool   `json:"active"`
}
