package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldsync/internal/config"
	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/repair"
	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/internal/sync"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// stubPlatform serves one page of canned data.
type stubPlatform struct {
	staff []setmore.StaffMember
}

func (p *stubPlatform) ListStaff(ctx context.Context, cursor string, pageSize int) ([]setmore.StaffMember, string, error) {
	if cursor != "" {
		return nil, "", nil
	}
	return p.staff, "", nil
}

func (p *stubPlatform) ListAppointments(ctx context.Context, cursor string, pageSize int) ([]setmore.Appointment, string, error) {
	return nil, "", nil
}

func (p *stubPlatform) ListServices(ctx context.Context, cursor string, pageSize int) ([]setmore.Service, string, error) {
	return nil, "", nil
}

func (p *stubPlatform) GetAppointment(ctx context.Context, key string) (*setmore.Appointment, error) {
	return nil, nil
}

func newTestServerEnv(t *testing.T, platform setmore.Client) (*serverEnv, *sync.RunLock) {
	t.Helper()
	cfg = &config.Config{}

	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	locks := sync.NewRunLock()
	env := &serverEnv{
		store:  s,
		runner: repair.NewRunner(s, repair.WithRunLock(locks)),
	}
	if platform != nil {
		env.engine = sync.NewEngine(s, platform, sync.WithRunLock(locks))
	}
	return env, locks
}

func TestServeHealth(t *testing.T) {
	env, _ := newTestServerEnv(t, nil)

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeSyncWithoutPlatform(t *testing.T) {
	env, _ := newTestServerEnv(t, nil)

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/sync/roster", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServeSyncRoster(t *testing.T) {
	env, _ := newTestServerEnv(t, &stubPlatform{staff: []setmore.StaffMember{
		{Key: "st-1", FirstName: "Jane", LastName: "Smith"},
	}})

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/sync/roster", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result model.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Created)
}

func TestServeSyncDryRunQuery(t *testing.T) {
	env, _ := newTestServerEnv(t, &stubPlatform{staff: []setmore.StaffMember{
		{Key: "st-1", FirstName: "Jane"},
	}})

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/sync/roster?dry_run=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result model.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.DryRun)

	got, err := env.store.GetStaffByExternalID(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestServeSyncUnknownEntity(t *testing.T) {
	env, _ := newTestServerEnv(t, &stubPlatform{})

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/sync/widgets", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeSyncLockContention(t *testing.T) {
	env, locks := newTestServerEnv(t, &stubPlatform{})

	release, err := locks.Acquire("sync-roster")
	require.NoError(t, err)
	defer release()

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/sync/roster", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServeRepairWithoutGeocoder(t *testing.T) {
	env, _ := newTestServerEnv(t, nil)

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/repair/geocode", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "geocoder")
}

func TestServeCallLookupWithoutTelephony(t *testing.T) {
	env, _ := newTestServerEnv(t, nil)

	rec := httptest.NewRecorder()
	env.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calls/CA123", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
