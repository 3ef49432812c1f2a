package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsync/internal/db"
	"github.com/sells-group/fieldsync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; tests use this with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS staff (
	id          TEXT PRIMARY KEY,
	external_id TEXT UNIQUE,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS crews (
	id          TEXT PRIMARY KEY,
	external_id TEXT UNIQUE,
	name        TEXT NOT NULL,
	color       TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE
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
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	active      BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS properties (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL REFERENCES customers(id),
	street      TEXT NOT NULL,
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	zip_code    TEXT NOT NULL DEFAULT '',
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS bookings (
	id             TEXT PRIMARY KEY,
	external_id    TEXT UNIQUE,
	scheduled_date TEXT NOT NULL DEFAULT '',
	start_time     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	customer_id    TEXT REFERENCES customers(id),
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS services (
	id               TEXT PRIMARY KEY,
	external_id      TEXT UNIQUE,
	name             TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	price_cents      INTEGER NOT NULL DEFAULT 0,
	active           BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_customers_active ON customers(active);
CREATE INDEX IF NOT EXISTS idx_bookings_customer_id ON bookings(customer_id);
CREATE INDEX IF NOT EXISTS idx_bookings_scheduled_date ON bookings(scheduled_date);
CREATE INDEX IF NOT EXISTS idx_properties_customer_id ON properties(customer_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) updateFields(ctx context.Context, table, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	cols, vals, err := sortFields(table, fields)
	if err != nil {
		return err
	}

	setClauses := make([]string, len(cols))
	for i, col := range cols {
		setClauses[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		table, strings.Join(setClauses, ", "), len(cols)+1)
	vals = append(vals, id)

	tag, err := s.pool.Exec(ctx, query, vals...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update %s %s", table, id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %s", table, id)
	}
	return nil
}

// Staff

func (s *PostgresStore) GetStaffByExternalID(ctx context.Context, externalID string) (*model.Staff, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(external_id, ''), first_name, last_name, email, phone, role, active
		 FROM staff WHERE external_id = $1`, externalID)

	var st model.Staff
	err := row.Scan(&st.ID, &st.ExternalID, &st.FirstName, &st.LastName, &st.Email, &st.Phone, &st.Role, &st.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get staff by external id")
	}
	return &st, nil
}

func (s *PostgresStore) InsertStaff(ctx context.Context, st *model.Staff) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO staff (id, external_id, first_name, last_name, email, phone, role, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		st.ID, nullable(st.ExternalID), st.FirstName, st.LastName, st.Email, st.Phone, st.Role, st.Active,
	)
	return eris.Wrap(err, "postgres: insert staff")
}

func (s *PostgresStore) UpdateStaff(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "staff", id, fields)
}

// Crews

func (s *PostgresStore) GetCrewByExternalID(ctx context.Context, externalID string) (*model.Crew, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(external_id, ''), name, color, active FROM crews WHERE external_id = $1`, externalID)

	var c model.Crew
	err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Color, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get crew by external id")
	}
	return &c, nil
}

func (s *PostgresStore) InsertCrew(ctx context.Context, c *model.Crew) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO crews (id, external_id, name, color, active) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, nullable(c.ExternalID), c.Name, c.Color, c.Active,
	)
	return eris.Wrap(err, "postgres: insert crew")
}

func (s *PostgresStore) UpdateCrew(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "crews", id, fields)
}

// Customers

const pgCustomerSelect = `SELECT id, COALESCE(external_id, ''), first_name, last_name, email, phone,
	street, city, state, zip_code, latitude, longitude, active FROM customers`

func (s *PostgresStore) scanCustomerRow(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Street, &c.City, &c.State, &c.ZipCode, &c.Latitude, &c.Longitude, &c.Active)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetCustomerByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	row := s.pool.QueryRow(ctx, pgCustomerSelect+` WHERE external_id = $1`, externalID)
	c, err := s.scanCustomerRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get customer by external id")
	}
	return c, nil
}

func (s *PostgresStore) InsertCustomer(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO customers (id, external_id, first_name, last_name, email, phone,
		 street, city, state, zip_code, latitude, longitude, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, nullable(c.ExternalID), c.FirstName, c.LastName, c.Email, c.Phone,
		c.Street, c.City, c.State, c.ZipCode, c.Latitude, c.Longitude, c.Active,
	)
	return eris.Wrap(err, "postgres: insert customer")
}

func (s *PostgresStore) UpdateCustomer(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "customers", id, fields)
}

func (s *PostgresStore) ListActiveCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, pgCustomerSelect+` WHERE active`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list active customers")
	}
	defer rows.Close()
	return s.collectCustomers(rows)
}

func (s *PostgresStore) collectCustomers(rows pgx.Rows) ([]model.Customer, error) {
	var customers []model.Customer
	for rows.Next() {
		c, err := s.scanCustomerRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer")
		}
		customers = append(customers, *c)
	}
	return customers, eris.Wrap(rows.Err(), "postgres: iterate customers")
}

// Bookings

const pgBookingSelect = `SELECT id, COALESCE(external_id, ''), scheduled_date, start_time, status,
	COALESCE(customer_id, ''), price, notes, created_at FROM bookings`

func (s *PostgresStore) scanBookingRow(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	var status string
	err := row.Scan(&b.ID, &b.ExternalID, &b.ScheduledDate, &b.StartTime, &status,
		&b.CustomerID, &b.Price, &b.Notes, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	return &b, nil
}

func (s *PostgresStore) GetBookingByExternalID(ctx context.Context, externalID string) (*model.Booking, error) {
	row := s.pool.QueryRow(ctx, pgBookingSelect+` WHERE external_id = $1`, externalID)
	b, err := s.scanBookingRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get booking by external id")
	}
	return b, nil
}

func (s *PostgresStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookings (id, external_id, scheduled_date, start_time, status, customer_id, price, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, nullable(b.ExternalID), b.ScheduledDate, b.StartTime, string(b.Status),
		nullable(b.CustomerID), b.Price, b.Notes, b.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert booking")
}

func (s *PostgresStore) UpdateBooking(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "bookings", id, fields)
}

// Services

func (s *PostgresStore) GetServiceByExternalID(ctx context.Context, externalID string) (*model.Service, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(external_id, ''), name, duration_minutes, price_cents, active
		 FROM services WHERE external_id = $1`, externalID)

	var sv model.Service
	err := row.Scan(&sv.ID, &sv.ExternalID, &sv.Name, &sv.DurationMinutes, &sv.PriceCents, &sv.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get service by external id")
	}
	return &sv, nil
}

func (s *PostgresStore) InsertService(ctx context.Context, sv *model.Service) error {
	if sv.ID == "" {
		sv.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO services (id, external_id, name, duration_minutes, price_cents, active)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sv.ID, nullable(sv.ExternalID), sv.Name, sv.DurationMinutes, sv.PriceCents, sv.Active,
	)
	return eris.Wrap(err, "postgres: insert service")
}

func (s *PostgresStore) UpdateService(ctx context.Context, id string, fields map[string]any) error {
	return s.updateFields(ctx, "services", id, fields)
}

// Repair predicates

func (s *PostgresStore) ListCustomersMissingCoordinates(ctx context.Context, limit int) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx,
		pgCustomerSelect+` WHERE latitude IS NULL OR longitude IS NULL ORDER BY id LIMIT $1`,
		normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list customers missing coordinates")
	}
	defer rows.Close()
	return s.collectCustomers(rows)
}

func (s *PostgresStore) CountCustomersMissingCoordinates(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE latitude IS NULL OR longitude IS NULL`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count customers missing coordinates")
}

func (s *PostgresStore) ListCustomersMissingCity(ctx context.Context, limit int) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx,
		pgCustomerSelect+` WHERE latitude IS NOT NULL AND longitude IS NOT NULL AND city = '' ORDER BY id LIMIT $1`,
		normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list customers missing city")
	}
	defer rows.Close()
	return s.collectCustomers(rows)
}

func (s *PostgresStore) CountCustomersMissingCity(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL AND city = ''`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count customers missing city")
}

func (s *PostgresStore) ListBookingsCreatedOn(ctx context.Context, date string, limit int) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx,
		pgBookingSelect+` WHERE created_at::date = $1::date AND external_id IS NOT NULL ORDER BY id LIMIT $2`,
		date, normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bookings created on")
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := s.scanBookingRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, eris.Wrap(rows.Err(), "postgres: iterate bookings")
}

func (s *PostgresStore) CountBookingsCreatedOn(ctx context.Context, date string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE created_at::date = $1::date AND external_id IS NOT NULL`, date).Scan(&n)
	return n, eris.Wrap(err, "postgres: count bookings created on")
}
