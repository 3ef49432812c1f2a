package setmore

// StaffMember is a team-roster entry. The platform's roster carries both
// individuals and whole crews in one list; Type distinguishes them only when
// the account has the field enabled, so it is frequently empty.
type StaffMember struct {
	Key         string `json:"key"`
	Type        string `json:"type,omitempty"` // "STAFF" or "CREW" when supplied
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email_id,omitempty"`
	Phone       string `json:"contact_number,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Customer is the customer payload embedded in appointment responses.
type Customer struct {
	Key       string `json:"key"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email_id,omitempty"`
	Phone     string `json:"cell_phone,omitempty"`
	Street    string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"postal_code,omitempty"`
}

// Appointment is a scheduled booking on the platform. StartTime is RFC3339;
// Label carries the platform's status vocabulary (PENDING, ACCEPTED,
// CANCELLED_BY_SELLER, ...).
type Appointment struct {
	Key         string    `json:"key"`
	StaffKey    string    `json:"staff_key,omitempty"`
	ServiceKey  string    `json:"service_key,omitempty"`
	CustomerKey string    `json:"customer_key,omitempty"`
	Label       string    `json:"label,omitempty"`
	StartTime   string    `json:"start_time,omitempty"`
	Comments    string    `json:"comments,omitempty"`
	Customer    *Customer `json:"customer,omitempty"`
}

// Service is a bookable catalog item.
type Service struct {
	Key             string  `json:"key"`
	Name            string  `json:"service_name"`
	DurationMinutes int     `json:"duration,omitempty"`
	Price           float64 `json:"cost,omitempty"`
}
