// Package repair implements targeted data-repair jobs over the local store:
// backfilling customer coordinates, filling missing city names, and
// re-fetching bookings written with a corrupted schedule. Jobs share the
// sync engine's run semantics: named locks, dry-run, per-record failure
// tolerance, and a live recount of remaining work.
package repair

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/internal/sync"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

const defaultLimit = 100

// Runner executes repair jobs. The geocoder and platform client are each
// optional; a job whose dependency is missing fails at the top with a
// configuration error before touching any record.
type Runner struct {
	store    store.Store
	geocoder geocode.Client
	platform setmore.Client
	locks    *sync.RunLock
	limit    int
	logger   *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithGeocoder wires the geocoding client used by the coordinate and city
// jobs.
func WithGeocoder(g geocode.Client) Option {
	return func(r *Runner) { r.geocoder = g }
}

// WithPlatform wires the booking platform client used by the booking repair
// job.
func WithPlatform(c setmore.Client) Option {
	return func(r *Runner) { r.platform = c }
}

// WithRunLock shares a lock registry with the sync engine.
func WithRunLock(l *sync.RunLock) Option {
	return func(r *Runner) { r.locks = l }
}

// WithDefaultLimit sets the per-run record cap used when the caller passes
// none.
func WithDefaultLimit(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewRunner creates a repair Runner over the given store.
func NewRunner(s store.Store, opts ...Option) *Runner {
	r := &Runner{
		store:  s,
		locks:  sync.NewRunLock(),
		limit:  defaultLimit,
		logger: zap.L().With(zap.String("component", "repair")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// job describes one repair pass over records of type T. Enrich computes the
// fields to write for one record; a nil map means the record cannot be
// repaired and is skipped.
type job[T any] struct {
	name    string
	scan    func(ctx context.Context, limit int) ([]T, error)
	count   func(ctx context.Context) (int, error)
	id      func(T) string
	enrich  func(ctx context.Context, rec T) (map[string]any, error)
	persist func(ctx context.Context, rec T, fields map[string]any) error
}

// runJob drives one repair pass: scan up to limit records, enrich and persist
// each, then recount what still matches the predicate. The recount is live,
// never derived from the counters, so concurrent writes and skipped records
// are reflected honestly.
func runJob[T any](ctx context.Context, r *Runner, j job[T], limit int, dryRun bool) (*model.RunResult, error) {
	release, err := r.locks.Acquire(j.name)
	if err != nil {
		return nil, err
	}
	defer release()

	if limit <= 0 {
		limit = r.limit
	}
	r.logger.Info("repair started",
		zap.String("job", j.name),
		zap.Int("limit", limit),
		zap.Bool("dry_run", dryRun))

	records, err := j.scan(ctx, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "repair: scan %s", j.name)
	}

	reporter := sync.NewReporter(dryRun)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "repair: run cancelled")
		}

		fields, err := j.enrich(ctx, rec)
		if err != nil {
			reporter.Failed(j.id(rec), err)
			continue
		}
		if len(fields) == 0 {
			reporter.Skipped()
			continue
		}
		if !dryRun {
			if err := j.persist(ctx, rec, fields); err != nil {
				reporter.Failed(j.id(rec), err)
				continue
			}
		}
		reporter.Updated()
	}

	remaining, err := j.count(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "repair: recount %s", j.name)
	}
	reporter.SetRemaining(remaining)

	result := reporter.Result()
	r.logger.Info("repair finished",
		zap.String("job", j.name),
		zap.Int("repaired", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("remaining", remaining))
	return result, nil
}
