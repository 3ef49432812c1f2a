package sync

import (
	"math"
	"strings"
	"time"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// bookingStatusTable translates the platform's appointment labels into the
// local status vocabulary. Several platform states collapse into one local
// state on purpose.
var bookingStatusTable = map[string]model.BookingStatus{
	"PENDING":               model.BookingStatusPending,
	"ACCEPTED":              model.BookingStatusConfirmed,
	"CONFIRMED":             model.BookingStatusConfirmed,
	"COMPLETED":             model.BookingStatusCompleted,
	"CANCELLED_BY_SELLER":   model.BookingStatusCancelled,
	"CANCELLED_BY_CUSTOMER": model.BookingStatusCancelled,
	"DECLINED":              model.BookingStatusCancelled,
	"NO_SHOW":               model.BookingStatusCancelled,
}

// TranslateStatus maps an external appointment status to the local
// vocabulary. Unknown statuses default to pending rather than failing the
// record; the platform adds labels without notice.
func TranslateStatus(external string) model.BookingStatus {
	if status, ok := bookingStatusTable[strings.ToUpper(strings.TrimSpace(external))]; ok {
		return status
	}
	return model.BookingStatusPending
}

// SplitStartTime decomposes an RFC3339 start timestamp into a calendar date
// and a local time-of-day string. A missing or malformed timestamp yields
// two empty strings, never an error.
func SplitStartTime(ts string) (date, clock string) {
	if ts == "" {
		return "", ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "", ""
	}
	return t.Format("2006-01-02"), t.Format("15:04")
}

// splitDisplayName derives first/last name from a display name when the
// payload carries no structured name.
func splitDisplayName(displayName string) (first, last string) {
	parts := strings.Fields(displayName)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// setIfPresent adds a key only when the value is non-empty, keeping the
// field set partial so the reconciler never overwrites local data with an
// absence.
func setIfPresent(fields map[string]any, key, value string) {
	if strings.TrimSpace(value) != "" {
		fields[key] = value
	}
}

// MapStaffFields maps a roster entry to staff fields.
func MapStaffFields(sm setmore.StaffMember) map[string]any {
	fields := map[string]any{"active": true}

	first, last := sm.FirstName, sm.LastName
	if first == "" && last == "" {
		first, last = splitDisplayName(sm.DisplayName)
	}
	setIfPresent(fields, "first_name", first)
	setIfPresent(fields, "last_name", last)
	setIfPresent(fields, "email", sm.Email)
	setIfPresent(fields, "phone", sm.Phone)
	return fields
}

// MapCrewFields maps a roster entry to crew fields.
func MapCrewFields(sm setmore.StaffMember) map[string]any {
	fields := map[string]any{"active": true}
	setIfPresent(fields, "name", sm.DisplayName)
	setIfPresent(fields, "color", sm.Color)
	return fields
}

// MapAppointmentFields maps an appointment to booking fields. customerID is
// the resolved local customer id, empty when unresolved; it is written even
// when empty on the insert path so an unlinked booking stays visibly
// unassigned, but omitted from updates to avoid severing a link a later
// sync established.
func MapAppointmentFields(a setmore.Appointment, customerID string, forUpdate bool) map[string]any {
	fields := map[string]any{
		"status": string(TranslateStatus(a.Label)),
	}
	date, clock := SplitStartTime(a.StartTime)
	setIfPresent(fields, "scheduled_date", date)
	setIfPresent(fields, "start_time", clock)
	setIfPresent(fields, "notes", a.Comments)
	if customerID != "" || !forUpdate {
		fields["customer_id"] = nullableID(customerID)
	}
	return fields
}

// MapCustomerFields maps an embedded customer payload to customer fields.
func MapCustomerFields(c setmore.Customer) map[string]any {
	fields := map[string]any{"active": true}
	setIfPresent(fields, "first_name", c.FirstName)
	setIfPresent(fields, "last_name", c.LastName)
	setIfPresent(fields, "email", c.Email)
	setIfPresent(fields, "phone", c.Phone)
	setIfPresent(fields, "street", c.Street)
	setIfPresent(fields, "city", c.City)
	setIfPresent(fields, "state", c.State)
	setIfPresent(fields, "zip_code", c.ZipCode)
	return fields
}

// MapServiceFields maps a catalog item to service fields.
func MapServiceFields(s setmore.Service) map[string]any {
	fields := map[string]any{"active": true}
	setIfPresent(fields, "name", s.Name)
	if s.DurationMinutes > 0 {
		fields["duration_minutes"] = s.DurationMinutes
	}
	if s.Price > 0 {
		fields["price_cents"] = int(math.Round(s.Price * 100))
	}
	return fields
}

// nullableID turns an empty id into NULL for the store layer.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
