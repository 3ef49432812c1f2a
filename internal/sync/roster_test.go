package sync

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

func TestSyncRoster(t *testing.T) {
	s := newEngineStore(t)
	ctx := context.Background()

	platform := &fakePlatform{staff: []setmore.StaffMember{
		{Key: "st-1", FirstName: "Jane", LastName: "Smith", Email: "jane@example.com"},
		{Key: "cr-1", DisplayName: "Alpha Crew", Color: "#ff0000"},
		{Key: "st-2", Type: "STAFF", DisplayName: "Squad Leader Mark"},
	}}
	e := NewEngine(s, platform)

	res, err := e.SyncRoster(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Zero(t, res.Failed)

	staff, err := s.GetStaffByExternalID(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, staff)
	assert.Equal(t, "Jane", staff.FirstName)

	crew, err := s.GetCrewByExternalID(ctx, "cr-1")
	require.NoError(t, err)
	require.NotNil(t, crew)
	assert.Equal(t, "Alpha Crew", crew.Name)

	// The explicit type overrode the vocabulary heuristic.
	typed, err := s.GetStaffByExternalID(ctx, "st-2")
	require.NoError(t, err)
	require.NotNil(t, typed)
	assert.Equal(t, "Squad", typed.FirstName)
	assert.Equal(t, "Leader Mark", typed.LastName)
}

func TestSyncRosterIsIdempotent(t *testing.T) {
	s := newEngineStore(t)
	ctx := context.Background()

	platform := &fakePlatform{staff: []setmore.StaffMember{
		{Key: "st-1", FirstName: "Jane", LastName: "Smith"},
	}}
	e := NewEngine(s, platform)

	res, err := e.SyncRoster(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	res, err = e.SyncRoster(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, res.Created, "second run creates nothing")
	assert.Equal(t, 1, res.Updated)
}

func TestSyncRosterDryRun(t *testing.T) {
	s := newEngineStore(t)
	ctx := context.Background()

	platform := &fakePlatform{staff: []setmore.StaffMember{
		{Key: "st-1", FirstName: "Jane", LastName: "Smith"},
	}}
	e := NewEngine(s, platform)

	res, err := e.SyncRoster(ctx, true)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Created, "outcome is still reported")

	got, err := s.GetStaffByExternalID(ctx, "st-1")
	require.NoError(t, err)
	assert.Nil(t, got, "dry run must not write")
}

func TestSyncRosterSkipsEntriesWithoutKey(t *testing.T) {
	s := newEngineStore(t)

	platform := &fakePlatform{staff: []setmore.StaffMember{
		{FirstName: "No", LastName: "Key"},
	}}
	e := NewEngine(s, platform)

	res, err := e.SyncRoster(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
}

// failingStore rejects inserts for one external id to simulate a per-record
// persistence failure mid-run.
type failingStore struct {
	store.Store
	failKey string
}

func (f *failingStore) InsertStaff(ctx context.Context, st *model.Staff) error {
	if st.ExternalID == f.failKey {
		return eris.New("disk full")
	}
	return f.Store.InsertStaff(ctx, st)
}

func TestSyncRosterPartialFailure(t *testing.T) {
	s := &failingStore{Store: newEngineStore(t), failKey: "st-3"}

	platform := &fakePlatform{staff: []setmore.StaffMember{
		{Key: "st-1", FirstName: "A"},
		{Key: "st-2", FirstName: "B"},
		{Key: "st-3", FirstName: "C"},
		{Key: "st-4", FirstName: "D"},
		{Key: "st-5", FirstName: "E"},
	}}
	e := NewEngine(s, platform)

	res, err := e.SyncRoster(context.Background(), false)
	require.NoError(t, err, "one bad record does not fail the run")
	assert.Equal(t, 4, res.Created)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "st-3", res.Errors[0].RecordID)
	assert.Contains(t, res.Errors[0].Reason, "disk full")
}

func TestSyncRosterLockContention(t *testing.T) {
	s := newEngineStore(t)
	locks := NewRunLock()
	e := NewEngine(s, &fakePlatform{}, WithRunLock(locks))

	release, err := locks.Acquire("sync-roster")
	require.NoError(t, err)
	defer release()

	_, err = e.SyncRoster(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunInProgress)
}
