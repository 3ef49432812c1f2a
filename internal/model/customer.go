package model

// Customer represents a client of the business. Phone is stored as entered;
// matching always goes through normalization (last 10 digits) because source
// formats vary wildly.
type Customer struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"external_id,omitempty"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Street     string   `json:"street,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	ZipCode    string   `json:"zip_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Active     bool     `json:"active"`
}

// Property is a serviceable address belonging to a customer. Customers with a
// single address typically have no Property rows; multi-location customers
// get one per site.
type Property struct {
	ID         string   `json:"id"`
	CustomerID string   `json:"customer_id"`
	Street     string   `json:"street"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	ZipCode    string   `json:"zip_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}
