package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// SyncBookings reconciles the platform's appointments into local bookings.
// An appointment's embedded customer is upserted first so the booking can
// link to it; a booking whose customer cannot be resolved is still written,
// unlinked, and heals on a later run once the customer exists.
func (e *Engine) SyncBookings(ctx context.Context, dryRun bool) (*model.RunResult, error) {
	release, err := e.locks.Acquire("sync-bookings")
	if err != nil {
		return nil, err
	}
	defer release()

	e.logger.Info("booking sync started", zap.Bool("dry_run", dryRun))

	reporter := NewReporter(dryRun)
	rec := NewReconciler(dryRun)

	pager := Pager[setmore.Appointment]{
		Fetch: func(ctx context.Context, cursor string) ([]setmore.Appointment, string, error) {
			return e.platform.ListAppointments(ctx, cursor, e.pageSize)
		},
		Process: func(ctx context.Context, appt setmore.Appointment) error {
			return e.syncBooking(ctx, rec, reporter, appt, dryRun)
		},
		OnError: func(appt setmore.Appointment, err error) {
			reporter.Failed(appt.Key, err)
		},
		Limiter: e.pace,
	}
	if err := pager.Run(ctx); err != nil {
		return nil, err
	}

	result := reporter.Result()
	e.logger.Info("booking sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (e *Engine) syncBooking(ctx context.Context, rec *Reconciler, reporter *Reporter, appt setmore.Appointment, dryRun bool) error {
	customerID, err := e.resolveBookingCustomer(ctx, appt, dryRun)
	if err != nil {
		return err
	}

	outcome, err := rec.Reconcile(ctx, Upsert{
		ExternalID: appt.Key,
		Find: func(ctx context.Context, externalID string) (string, error) {
			existing, err := e.store.GetBookingByExternalID(ctx, externalID)
			if err != nil || existing == nil {
				return "", err
			}
			return existing.ID, nil
		},
		Insert: func(ctx context.Context) error {
			return e.store.InsertBooking(ctx, bookingFromAppointment(appt, customerID))
		},
		Update: func(ctx context.Context, localID string) error {
			return e.store.UpdateBooking(ctx, localID, MapAppointmentFields(appt, customerID, true))
		},
	})
	if err != nil {
		return err
	}
	recordOutcome(reporter, outcome)
	return nil
}

// resolveBookingCustomer returns the local customer id a booking should link
// to, empty when unresolved. An embedded customer payload is upserted by its
// external key; a bare customer key is only looked up.
func (e *Engine) resolveBookingCustomer(ctx context.Context, appt setmore.Appointment, dryRun bool) (string, error) {
	key := appt.CustomerKey
	if appt.Customer != nil && appt.Customer.Key != "" {
		key = appt.Customer.Key
	}
	if key == "" {
		return "", nil
	}

	existing, err := e.store.GetCustomerByExternalID(ctx, key)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if appt.Customer != nil && !dryRun {
			if err := e.store.UpdateCustomer(ctx, existing.ID, MapCustomerFields(*appt.Customer)); err != nil {
				return "", err
			}
		}
		return existing.ID, nil
	}

	// No local record and no payload to create one from.
	if appt.Customer == nil || dryRun {
		return "", nil
	}

	c := e.customerFromPayload(ctx, appt.Customer)
	if err := e.store.InsertCustomer(ctx, c); err != nil {
		return "", err
	}
	e.logger.Info("customer created from booking payload",
		zap.String("external_id", c.ExternalID),
		zap.String("customer_id", c.ID))
	return c.ID, nil
}

// customerFromPayload builds a customer record from an embedded booking
// payload, enriching the address with coordinates when a geocoder is wired
// in. Enrichment failure never fails the record; the geocode repair job
// catches anything missed here.
func (e *Engine) customerFromPayload(ctx context.Context, pc *setmore.Customer) *model.Customer {
	c := &model.Customer{
		ExternalID: pc.Key,
		FirstName:  pc.FirstName,
		LastName:   pc.LastName,
		Email:      pc.Email,
		Phone:      pc.Phone,
		Street:     pc.Street,
		City:       pc.City,
		State:      pc.State,
		ZipCode:    pc.ZipCode,
		Active:     true,
	}

	if e.geocoder == nil || c.Street == "" {
		return c
	}
	res, err := e.geocoder.Geocode(ctx, geocode.AddressInput{
		Street:  c.Street,
		City:    c.City,
		State:   c.State,
		ZipCode: c.ZipCode,
	})
	if err != nil {
		e.logger.Warn("geocode enrichment failed",
			zap.String("external_id", pc.Key),
			zap.Error(err))
		return c
	}
	if res.Matched {
		lat, lng := res.Latitude, res.Longitude
		c.Latitude = &lat
		c.Longitude = &lng
		if c.City == "" {
			c.City = res.City
		}
	}
	return c
}

func bookingFromAppointment(appt setmore.Appointment, customerID string) *model.Booking {
	date, clock := SplitStartTime(appt.StartTime)
	return &model.Booking{
		ExternalID:    appt.Key,
		ScheduledDate: date,
		StartTime:     clock,
		Status:        TranslateStatus(appt.Label),
		CustomerID:    customerID,
		Notes:         appt.Comments,
	}
}
