package model

// Staff represents an individual team member in the local system of record.
// ExternalID holds the booking platform's key when the record originated from
// (or has been matched to) a roster sync; it is empty for manual entries.
type Staff struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
	Active     bool   `json:"active"`
}

// Crew represents a named group of staff (a truck, squad, or install team).
type Crew struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Active     bool   `json:"active"`
}
