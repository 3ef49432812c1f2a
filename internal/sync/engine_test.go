package sync

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// fakePlatform serves canned payloads in a single page.
type fakePlatform struct {
	staff        []setmore.StaffMember
	appointments []setmore.Appointment
	services     []setmore.Service
	listErr      error
}

func (f *fakePlatform) ListStaff(ctx context.Context, cursor string, pageSize int) ([]setmore.StaffMember, string, error) {
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	if cursor != "" {
		return nil, "", nil
	}
	return f.staff, "", nil
}

func (f *fakePlatform) ListAppointments(ctx context.Context, cursor string, pageSize int) ([]setmore.Appointment, string, error) {
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	if cursor != "" {
		return nil, "", nil
	}
	return f.appointments, "", nil
}

func (f *fakePlatform) ListServices(ctx context.Context, cursor string, pageSize int) ([]setmore.Service, string, error) {
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	if cursor != "" {
		return nil, "", nil
	}
	return f.services, "", nil
}

func (f *fakePlatform) GetAppointment(ctx context.Context, key string) (*setmore.Appointment, error) {
	for i := range f.appointments {
		if f.appointments[i].Key == key {
			return &f.appointments[i], nil
		}
	}
	return nil, eris.Errorf("appointment not found: %s", key)
}

// fakeGeocoder returns a fixed location for every address.
type fakeGeocoder struct {
	result *geocode.Result
	err    error
	calls  int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, addr geocode.AddressInput) (*geocode.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	return "", nil
}

func newEngineStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}
