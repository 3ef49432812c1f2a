package sync

import (
	"context"

	"github.com/rotisserie/eris"
)

// Outcome is the per-record result of an upsert.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// Upsert describes one record's reconciliation in terms of its external
// identity and three closures. Find returns ("", nil) when no local record
// carries the external id; Insert and Update perform the actual write.
type Upsert struct {
	ExternalID string
	Find       func(ctx context.Context, externalID string) (localID string, err error)
	Insert     func(ctx context.Context) error
	Update     func(ctx context.Context, localID string) error
}

// Reconciler applies upserts idempotently: look up by external id first, then
// insert or update. In dry-run mode the lookup still happens so the outcome
// is accurate, but no write is issued.
type Reconciler struct {
	dryRun bool
}

// NewReconciler creates a Reconciler. When dryRun is set, Reconcile reports
// what it would do without writing.
func NewReconciler(dryRun bool) *Reconciler {
	return &Reconciler{dryRun: dryRun}
}

// Reconcile runs one upsert. A record with no external id is skipped: there
// is no identity to reconcile against, and inserting it would create a
// duplicate on every run.
func (r *Reconciler) Reconcile(ctx context.Context, u Upsert) (Outcome, error) {
	if u.ExternalID == "" {
		return OutcomeSkipped, nil
	}

	localID, err := u.Find(ctx, u.ExternalID)
	if err != nil {
		return "", eris.Wrap(err, "sync: lookup by external id")
	}

	if localID == "" {
		if !r.dryRun {
			if err := u.Insert(ctx); err != nil {
				return "", eris.Wrap(err, "sync: insert record")
			}
		}
		return OutcomeCreated, nil
	}

	if !r.dryRun {
		if err := u.Update(ctx, localID); err != nil {
			return "", eris.Wrap(err, "sync: update record")
		}
	}
	return OutcomeUpdated, nil
}
