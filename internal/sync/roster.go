package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// SyncRoster reconciles the platform's staff listing into local staff and
// crew records. Each entry is classified first; a group-looking entry becomes
// a crew, everything else an individual staff member.
func (e *Engine) SyncRoster(ctx context.Context, dryRun bool) (*model.RunResult, error) {
	release, err := e.locks.Acquire("sync-roster")
	if err != nil {
		return nil, err
	}
	defer release()

	e.logger.Info("roster sync started", zap.Bool("dry_run", dryRun))

	reporter := NewReporter(dryRun)
	rec := NewReconciler(dryRun)

	pager := Pager[setmore.StaffMember]{
		Fetch: func(ctx context.Context, cursor string) ([]setmore.StaffMember, string, error) {
			return e.platform.ListStaff(ctx, cursor, e.pageSize)
		},
		Process: func(ctx context.Context, sm setmore.StaffMember) error {
			return e.syncRosterEntry(ctx, rec, reporter, sm)
		},
		OnError: func(sm setmore.StaffMember, err error) {
			reporter.Failed(sm.Key, err)
		},
		Limiter: e.pace,
	}
	if err := pager.Run(ctx); err != nil {
		return nil, err
	}

	result := reporter.Result()
	e.logger.Info("roster sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (e *Engine) syncRosterEntry(ctx context.Context, rec *Reconciler, reporter *Reporter, sm setmore.StaffMember) error {
	var u Upsert
	switch e.classify.ClassifyEntry(sm.Type, sm.DisplayName) {
	case KindCrew:
		u = Upsert{
			ExternalID: sm.Key,
			Find: func(ctx context.Context, externalID string) (string, error) {
				existing, err := e.store.GetCrewByExternalID(ctx, externalID)
				if err != nil || existing == nil {
					return "", err
				}
				return existing.ID, nil
			},
			Insert: func(ctx context.Context) error {
				return e.store.InsertCrew(ctx, crewFromEntry(sm))
			},
			Update: func(ctx context.Context, localID string) error {
				return e.store.UpdateCrew(ctx, localID, MapCrewFields(sm))
			},
		}
	default:
		u = Upsert{
			ExternalID: sm.Key,
			Find: func(ctx context.Context, externalID string) (string, error) {
				existing, err := e.store.GetStaffByExternalID(ctx, externalID)
				if err != nil || existing == nil {
					return "", err
				}
				return existing.ID, nil
			},
			Insert: func(ctx context.Context) error {
				return e.store.InsertStaff(ctx, staffFromEntry(sm))
			},
			Update: func(ctx context.Context, localID string) error {
				return e.store.UpdateStaff(ctx, localID, MapStaffFields(sm))
			},
		}
	}

	outcome, err := rec.Reconcile(ctx, u)
	if err != nil {
		return err
	}
	recordOutcome(reporter, outcome)
	return nil
}

func staffFromEntry(sm setmore.StaffMember) *model.Staff {
	first, last := sm.FirstName, sm.LastName
	if first == "" && last == "" {
		first, last = splitDisplayName(sm.DisplayName)
	}
	return &model.Staff{
		ExternalID: sm.Key,
		FirstName:  first,
		LastName:   last,
		Email:      sm.Email,
		Phone:      sm.Phone,
		Active:     true,
	}
}

func crewFromEntry(sm setmore.StaffMember) *model.Crew {
	return &model.Crew{
		ExternalID: sm.Key,
		Name:       sm.DisplayName,
		Color:      sm.Color,
		Active:     true,
	}
}

func recordOutcome(reporter *Reporter, outcome Outcome) {
	switch outcome {
	case OutcomeCreated:
		reporter.Created()
	case OutcomeUpdated:
		reporter.Updated()
	case OutcomeSkipped:
		reporter.Skipped()
	}
}
