// Package store persists the local system of record for the reconciliation
// engine: staff, crews, customers, bookings, and the service catalog.
package store

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsync/internal/model"
)

// Store defines the persistence operations the sync and repair engines need.
// Get-by-external-id methods return (nil, nil) when no row matches; update
// methods apply field-level merges, writing only the keys present in the
// fields map.
type Store interface {
	// Staff
	GetStaffByExternalID(ctx context.Context, externalID string) (*model.Staff, error)
	InsertStaff(ctx context.Context, s *model.Staff) error
	UpdateStaff(ctx context.Context, id string, fields map[string]any) error

	// Crews
	GetCrewByExternalID(ctx context.Context, externalID string) (*model.Crew, error)
	InsertCrew(ctx context.Context, c *model.Crew) error
	UpdateCrew(ctx context.Context, id string, fields map[string]any) error

	// Customers
	GetCustomerByExternalID(ctx context.Context, externalID string) (*model.Customer, error)
	InsertCustomer(ctx context.Context, c *model.Customer) error
	UpdateCustomer(ctx context.Context, id string, fields map[string]any) error
	ListActiveCustomers(ctx context.Context) ([]model.Customer, error)

	// Bookings
	GetBookingByExternalID(ctx context.Context, externalID string) (*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, id string, fields map[string]any) error

	// Services
	GetServiceByExternalID(ctx context.Context, externalID string) (*model.Service, error)
	InsertService(ctx context.Context, s *model.Service) error
	UpdateService(ctx context.Context, id string, fields map[string]any) error

	// Repair predicates. Each List has a matching Count so repair jobs can
	// report `remaining` from a live recount rather than arithmetic.
	ListCustomersMissingCoordinates(ctx context.Context, limit int) ([]model.Customer, error)
	CountCustomersMissingCoordinates(ctx context.Context) (int, error)
	ListCustomersMissingCity(ctx context.Context, limit int) ([]model.Customer, error)
	CountCustomersMissingCity(ctx context.Context) (int, error)
	ListBookingsCreatedOn(ctx context.Context, date string, limit int) ([]model.Booking, error)
	CountBookingsCreatedOn(ctx context.Context, date string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Updatable columns per table. Update methods reject any field key outside
// these sets; identifiers never appear here, so a merge cannot move a row.
var updatableColumns = map[string]map[string]bool{
	"staff": {
		"external_id": true, "first_name": true, "last_name": true,
		"email": true, "phone": true, "role": true, "active": true,
	},
	"crews": {
		"external_id": true, "name": true, "color": true, "active": true,
	},
	"customers": {
		"external_id": true, "first_name": true, "last_name": true,
		"email": true, "phone": true, "street": true, "city": true,
		"state": true, "zip_code": true, "latitude": true, "longitude": true,
		"active": true,
	},
	"bookings": {
		"external_id": true, "scheduled_date": true, "start_time": true,
		"status": true, "customer_id": true, "notes": true,
	},
	"services": {
		"external_id": true, "name": true, "duration_minutes": true,
		"price_cents": true, "active": true,
	},
}

// sortFields validates fields against the table's updatable set and returns
// columns and values in deterministic (sorted) order.
func sortFields(table string, fields map[string]any) ([]string, []any, error) {
	allowed, ok := updatableColumns[table]
	if !ok {
		return nil, nil, eris.Errorf("store: unknown table %s", table)
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !allowed[col] {
			return nil, nil, eris.Errorf("store: column %s.%s is not updatable", table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	vals := make([]any, len(cols))
	for i, col := range cols {
		vals[i] = fields[col]
	}
	return cols, vals, nil
}
