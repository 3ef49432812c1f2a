package repair

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeGeocoder answers every forward lookup with a fixed result and every
// reverse lookup with a fixed city.
type fakeGeocoder struct {
	result *geocode.Result
	city   string
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
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.city, nil
}

// fakePlatform serves appointments by key.
type fakePlatform struct {
	appointments map[string]*setmore.Appointment
}

func (f *fakePlatform) ListStaff(ctx context.Context, cursor string, pageSize int) ([]setmore.StaffMember, string, error) {
	return nil, "", nil
}

func (f *fakePlatform) ListAppointments(ctx context.Context, cursor string, pageSize int) ([]setmore.Appointment, string, error) {
	return nil, "", nil
}

func (f *fakePlatform) ListServices(ctx context.Context, cursor string, pageSize int) ([]setmore.Service, string, error) {
	return nil, "", nil
}

func (f *fakePlatform) GetAppointment(ctx context.Context, key string) (*setmore.Appointment, error) {
	appt, ok := f.appointments[key]
	if !ok {
		return nil, eris.Errorf("appointment not found: %s", key)
	}
	return appt, nil
}
