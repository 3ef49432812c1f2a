package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fieldsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS staff (
	id          TEXT PRIMARY KEY,
	external_id TEXT UNIQUE,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS crews (
	id          TEXT PRIMARY KEY,
	external_id TEXT UNIQUE,
	name        TEXT NOT NULL,
	color       TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS customers (
	id          TEXT PRIMARY KEY,
	external_id TEXT UNIQUE,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	street      TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	zip_code    TEXT NOT NULL DEFAULT '',
	latitude    REAL,
	longitude   REAL,
	active      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS properties (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL REFERENCES customers(id),
	street      TEXT NOT NULL,
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	zip_code    TEXT NOT NULL DEFAULT '',
	latitude    REAL,
	longitude   REAL
);

CREATE TABLE IF NOT EXISTS bookings (
	id             TEXT PRIMARY KEY,
	external_id    TEXT UNIQUE,
	scheduled_date TEXT NOT NULL DEFAULT '',
	start_time     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	customer_id    TEXT REFERENCES customers(id),
	price          REAL NOT NULL DEFAULT 0,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS services (
	id               TEXT PRIMARY KEY,
	external_id      TEXT UNIQUE,
	name             TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	price_cents      INTEGER NOT NULL DEFAULT 0,
	active           INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_customers_active ON customers(active);
CREATE INDEX IF NOT EXISTS idx_bookings_customer_id ON bookings(customer_id);
CREATE INDEX IF NOT EXISTS idx_bookings_scheduled_date ON bookings(scheduled_date);
CREATE INDEX IF NOT EXISTS idx_properties_customer_id ON properties(customer_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// updateFields applies a field-level merge: only the keys present in fields
// are written, inside a single statement (its own implicit transaction).
func (s *SQLiteStore) updateFields(ctx context.Context, table, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	cols, vals, err := sortFields(table, fields)
	if err != nil {
		return err
	}

	setClauses := make([]string, len(cols))
	for i, col := range cols {
		setClauses[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(setClauses, ", "))
	vals = append(vals, id)

	res, err := s.db.ExecContext(ctx, query, vals...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %s %s", table, id)
	}
	return checkRowsAffected(res, table, id)
}

// Staff

func (s *SQLiteStore) GetStaffByExternalID(ctx context.Context, externalID string) (*model.Staff, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, first_name, last_name, email, phone, role, active
		 FROM staff WHERE external_id = ?`, externalID)

	var st model.Staff
	var extID sql.NullString
	err := row.Scan(&st.ID, &extID, &st.FirstName, &st.LastName, &st.Email, &st.Phone, &st.Role, &st.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get staff by external id")
	}
	st.ExternalID = extID.String
	return &st, nil
}

func (s *SQLiteStore) InsertStaff(ctx context.Context, st *model.Staff) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO staff (id, external_id, first_name, last_name, email, phone, role, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, nullable(st.ExternalID), st.FirstName, st.LastName, st.Email, st.Phone, st.Role, st.Active,
	)
	return eris.Wrap(err, "sqlite: insert staff")
}

func (s *SQLiteStore) UpdateStaff(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "staff", id, fields)
}

// Crews

func (s *SQLiteStore) GetCrewByExternalID(ctx context.Context, externalID string) (*model.Crew, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, color, active FROM crews WHERE external_id = ?`, externalID)

	var c model.Crew
	var extID sql.NullString
	err := row.Scan(&c.ID, &extID, &c.Name, &c.Color, &c.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get crew by external id")
	}
	c.ExternalID = extID.String
	return &c, nil
}

func (s *SQLiteStore) InsertCrew(ctx context.Context, c *model.Crew) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crews (id, external_id, name, color, active) VALUES (?, ?, ?, ?, ?)`,
		c.ID, nullable(c.ExternalID), c.Name, c.Color, c.Active,
	)
	return eris.Wrap(err, "sqlite: insert crew")
}

func (s *SQLiteStore) UpdateCrew(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "crews", id, fields)
}

// Customers

const customerColumns = `id, external_id, first_name, last_name, email, phone, street, city, state, zip_code, latitude, longitude, active`

func (s *SQLiteStore) GetCustomerByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE external_id = ?`, externalID)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get customer by external id")
	}
	return c, nil
}

func (s *SQLiteStore) InsertCustomer(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullable(c.ExternalID), c.FirstName, c.LastName, c.Email, c.Phone,
		c.Street, c.City, c.State, c.ZipCode, c.Latitude, c.Longitude, c.Active,
	)
	return eris.Wrap(err, "sqlite: insert customer")
}

func (s *SQLiteStore) UpdateCustomer(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "customers", id, fields)
}

func (s *SQLiteStore) ListActiveCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE active = 1`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list active customers")
	}
	defer rows.Close()
	return collectCustomers(rows)
}

// Bookings

const bookingColumns = `id, external_id, scheduled_date, start_time, status, customer_id, price, notes, created_at`

func (s *SQLiteStore) GetBookingByExternalID(ctx context.Context, externalID string) (*model.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE external_id = ?`, externalID)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get booking by external id")
	}
	return b, nil
}

func (s *SQLiteStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, nullable(b.ExternalID), b.ScheduledDate, b.StartTime, string(b.Status),
		nullable(b.CustomerID), b.Price, b.Notes, b.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert booking")
}

func (s *SQLiteStore) UpdateBooking(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "bookings", id, fields)
}

// Services

func (s *SQLiteStore) GetServiceByExternalID(ctx context.Context, externalID string) (*model.Service, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, duration_minutes, price_cents, active
		 FROM services WHERE external_id = ?`, externalID)

	var sv model.Service
	var extID sql.NullString
	err := row.Scan(&sv.ID, &extID, &sv.Name, &sv.DurationMinutes, &sv.PriceCents, &sv.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get service by external id")
	}
	sv.ExternalID = extID.String
	return &sv, nil
}

func (s *SQLiteStore) InsertService(ctx context.Context, sv *model.Service) error {
	if sv.ID == "" {
		sv.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (id, external_id, name, duration_minutes, price_cents, active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sv.ID, nullable(sv.ExternalID), sv.Name, sv.DurationMinutes, sv.PriceCents, sv.Active,
	)
	return eris.Wrap(err, "sqlite: insert service")
}

func (s *SQLiteStore) UpdateService(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "services", id, fields)
}

// Repair predicates

func (s *SQLiteStore) ListCustomersMissingCoordinates(ctx context.Context, limit int) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE latitude IS NULL OR longitude IS NULL
		 ORDER BY id LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list customers missing coordinates")
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (s *SQLiteStore) CountCustomersMissingCoordinates(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE latitude IS NULL OR longitude IS NULL`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count customers missing coordinates")
}

func (s *SQLiteStore) ListCustomersMissingCity(ctx context.Context, limit int) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL AND city = ''
		 ORDER BY id LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list customers missing city")
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (s *SQLiteStore) CountCustomersMissingCity(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL AND city = ''`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count customers missing city")
}

func (s *SQLiteStore) ListBookingsCreatedOn(ctx context.Context, date string, limit int) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE DATE(created_at) = ? AND external_id IS NOT NULL
		 ORDER BY id LIMIT ?`, date, normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bookings created on")
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, eris.Wrap(rows.Err(), "sqlite: iterate bookings")
}

func (s *SQLiteStore) CountBookingsCreatedOn(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE DATE(created_at) = ? AND external_id IS NOT NULL`, date).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count bookings created on")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

// nullable turns an empty string into NULL so unique indexes on optional
// external ids ignore locally created rows.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCustomer(row scannable) (*model.Customer, error) {
	var c model.Customer
	var extID sql.NullString
	var lat, lng sql.NullFloat64
	err := row.Scan(&c.ID, &extID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Street, &c.City, &c.State, &c.ZipCode, &lat, &lng, &c.Active)
	if err != nil {
		return nil, err
	}
	c.ExternalID = extID.String
	if lat.Valid {
		c.Latitude = &lat.Float64
	}
	if lng.Valid {
		c.Longitude = &lng.Float64
	}
	return &c, nil
}

func collectCustomers(rows *sql.Rows) ([]model.Customer, error) {
	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer")
		}
		customers = append(customers, *c)
	}
	return customers, eris.Wrap(rows.Err(), "sqlite: iterate customers")
}

func scanBooking(row scannable) (*model.Booking, error) {
	var b model.Booking
	var extID, custID sql.NullString
	var status string
	err := row.Scan(&b.ID, &extID, &b.ScheduledDate, &b.StartTime, &status,
		&custID, &b.Price, &b.Notes, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.ExternalID = extID.String
	b.CustomerID = custID.String
	b.Status = model.BookingStatus(status)
	return &b, nil
}
