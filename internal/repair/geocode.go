package repair

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/pkg/geocode"
)

// Coordinates backfills latitude and longitude for customers missing them,
// geocoding each stored address. A customer with no street, or whose address
// the geocoder cannot match, is skipped and stays in the remaining count.
func (r *Runner) Coordinates(ctx context.Context, limit int, dryRun bool) (*model.RunResult, error) {
	if r.geocoder == nil {
		return nil, eris.New("repair: geocoder not configured")
	}

	return runJob(ctx, r, job[model.Customer]{
		name:  "repair-coordinates",
		scan:  r.store.ListCustomersMissingCoordinates,
		count: r.store.CountCustomersMissingCoordinates,
		id:    func(c model.Customer) string { return c.ID },
		enrich: func(ctx context.Context, c model.Customer) (map[string]any, error) {
			if c.Street == "" {
				return nil, nil
			}
			res, err := r.geocoder.Geocode(ctx, geocode.AddressInput{
				Street:  c.Street,
				City:    c.City,
				State:   c.State,
				ZipCode: c.ZipCode,
			})
			if err != nil {
				return nil, err
			}
			if !res.Matched {
				return nil, nil
			}
			fields := map[string]any{
				"latitude":  res.Latitude,
				"longitude": res.Longitude,
			}
			if c.City == "" && res.City != "" {
				fields["city"] = res.City
			}
			return fields, nil
		},
		persist: func(ctx context.Context, c model.Customer, fields map[string]any) error {
			return r.store.UpdateCustomer(ctx, c.ID, fields)
		},
	}, limit, dryRun)
}

// City fills in missing city names for customers that already have
// coordinates, using reverse geocoding. Only the city field is written.
func (r *Runner) City(ctx context.Context, limit int, dryRun bool) (*model.RunResult, error) {
	if r.geocoder == nil {
		return nil, eris.New("repair: geocoder not configured")
	}

	return runJob(ctx, r, job[model.Customer]{
		name:  "repair-city",
		scan:  r.store.ListCustomersMissingCity,
		count: r.store.CountCustomersMissingCity,
		id:    func(c model.Customer) string { return c.ID },
		enrich: func(ctx context.Context, c model.Customer) (map[string]any, error) {
			if c.Latitude == nil || c.Longitude == nil {
				return nil, nil
			}
			city, err := r.geocoder.ReverseGeocode(ctx, *c.Latitude, *c.Longitude)
			if err != nil {
				return nil, err
			}
			if city == "" {
				return nil, nil
			}
			return map[string]any{"city": city}, nil
		},
		persist: func(ctx context.Context, c model.Customer, fields map[string]any) error {
			return r.store.UpdateCustomer(ctx, c.ID, fields)
		},
	}, limit, dryRun)
}
