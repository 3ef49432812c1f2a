package repair

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/pkg/geocode"
)

func TestCoordinatesRepair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Street: "123 Main St", State: "IL", Active: true,
	}))
	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "NoAddress", Active: true,
	}))

	geo := &fakeGeocoder{result: &geocode.Result{
		Latitude: 41.8781, Longitude: -87.6298, City: "Chicago", Matched: true,
	}}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.Coordinates(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped, "customer without a street cannot be geocoded")
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 1, *res.Remaining, "the skipped customer still matches the predicate")

	fixed, err := s.ListCustomersMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fixed, 1)
	assert.Equal(t, "NoAddress", fixed[0].FirstName)
}

func TestCoordinatesRepairFillsEmptyCity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &model.Customer{FirstName: "Ann", Street: "123 Main St", Active: true}
	require.NoError(t, s.InsertCustomer(ctx, c))

	geo := &fakeGeocoder{result: &geocode.Result{
		Latitude: 41.88, Longitude: -87.63, City: "Chicago", Matched: true,
	}}
	r := NewRunner(s, WithGeocoder(geo))

	_, err := r.Coordinates(ctx, 0, false)
	require.NoError(t, err)

	got, err := s.ListActiveCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chicago", got[0].City)
}

func TestCoordinatesRepairDryRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Street: "123 Main St", Active: true,
	}))

	geo := &fakeGeocoder{result: &geocode.Result{Latitude: 1, Longitude: 2, Matched: true}}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.Coordinates(ctx, 0, true)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Updated, "outcome is still reported")
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 1, *res.Remaining, "nothing was written")
}

func TestCoordinatesRepairUnmatchedAddressSkipped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Street: "nowhere at all", Active: true,
	}))

	geo := &fakeGeocoder{result: &geocode.Result{Matched: false}}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.Coordinates(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Failed)
}

func TestCoordinatesRepairGeocoderErrorCountsAsFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Street: "123 Main St", Active: true,
	}))

	geo := &fakeGeocoder{err: eris.New("quota exceeded")}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.Coordinates(ctx, 0, false)
	require.NoError(t, err, "per-record failures do not fail the run")
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Reason, "quota exceeded")
}

func TestCoordinatesRepairRequiresGeocoder(t *testing.T) {
	r := NewRunner(newTestStore(t))
	_, err := r.Coordinates(context.Background(), 0, false)
	assert.Error(t, err)
}

func TestCoordinatesRepairHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
			FirstName: "C", Street: "123 Main St", Active: true,
		}))
	}

	geo := &fakeGeocoder{result: &geocode.Result{Latitude: 1, Longitude: 2, Matched: true}}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.Coordinates(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 3, *res.Remaining)
}

func TestCityRepair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lat, lng := 41.88, -87.63
	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Latitude: &lat, Longitude: &lng, Active: true,
	}))

	geo := &fakeGeocoder{city: "Chicago"}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.City(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	require.NotNil(t, res.Remaining)
	assert.Zero(t, *res.Remaining)

	got, err := s.ListActiveCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Chicago", got[0].City)
}

func TestCityRepairNoLocalitySkips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lat, lng := 0.0, 0.0
	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Latitude: &lat, Longitude: &lng, Active: true,
	}))

	geo := &fakeGeocoder{city: ""}
	r := NewRunner(s, WithGeocoder(geo))

	res, err := r.City(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
}
