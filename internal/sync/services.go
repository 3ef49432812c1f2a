package sync

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// SyncServices reconciles the platform's service catalog into local service
// records.
func (e *Engine) SyncServices(ctx context.Context, dryRun bool) (*model.RunResult, error) {
	release, err := e.locks.Acquire("sync-services")
	if err != nil {
		return nil, err
	}
	defer release()

	e.logger.Info("service sync started", zap.Bool("dry_run", dryRun))

	reporter := NewReporter(dryRun)
	rec := NewReconciler(dryRun)

	pager := Pager[setmore.Service]{
		Fetch: func(ctx context.Context, cursor string) ([]setmore.Service, string, error) {
			return e.platform.ListServices(ctx, cursor, e.pageSize)
		},
		Process: func(ctx context.Context, svc setmore.Service) error {
			outcome, err := rec.Reconcile(ctx, Upsert{
				ExternalID: svc.Key,
				Find: func(ctx context.Context, externalID string) (string, error) {
					existing, err := e.store.GetServiceByExternalID(ctx, externalID)
					if err != nil || existing == nil {
						return "", err
					}
					return existing.ID, nil
				},
				Insert: func(ctx context.Context) error {
					return e.store.InsertService(ctx, serviceFromPayload(svc))
				},
				Update: func(ctx context.Context, localID string) error {
					return e.store.UpdateService(ctx, localID, MapServiceFields(svc))
				},
			})
			if err != nil {
				return err
			}
			recordOutcome(reporter, outcome)
			return nil
		},
		OnError: func(svc setmore.Service, err error) {
			reporter.Failed(svc.Key, err)
		},
		Limiter: e.pace,
	}
	if err := pager.Run(ctx); err != nil {
		return nil, err
	}

	result := reporter.Result()
	e.logger.Info("service sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

func serviceFromPayload(svc setmore.Service) *model.Service {
	return &model.Service{
		ExternalID:      svc.Key,
		Name:            svc.Name,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      int(math.Round(svc.Price * 100)),
		Active:          true,
	}
}
