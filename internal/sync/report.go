package sync

import (
	"go.uber.org/zap"

	"github.com/sells-group/fieldsync/internal/model"
)

// Reporter accumulates per-record outcomes into a RunResult. It samples the
// first MaxErrorSamples failures and truncates each reason to
// MaxErrorReasonLen; the Failed counter always reflects the true total.
type Reporter struct {
	result model.RunResult
	logger *zap.Logger
}

// NewReporter creates a Reporter for one run.
func NewReporter(dryRun bool) *Reporter {
	return &Reporter{
		result: model.RunResult{DryRun: dryRun},
		logger: zap.L().With(zap.String("component", "reporter")),
	}
}

func (r *Reporter) Created() { r.result.Created++ }
func (r *Reporter) Updated() { r.result.Updated++ }
func (r *Reporter) Skipped() { r.result.Skipped++ }

// Failed records one per-record failure. Every failure is logged; only a
// sample is carried in the result.
func (r *Reporter) Failed(recordID string, err error) {
	r.result.Failed++
	r.logger.Warn("record failed",
		zap.String("record_id", recordID),
		zap.Error(err))

	if len(r.result.Errors) >= model.MaxErrorSamples {
		return
	}
	reason := err.Error()
	if len(reason) > model.MaxErrorReasonLen {
		reason = reason[:model.MaxErrorReasonLen]
	}
	r.result.Errors = append(r.result.Errors, model.RunError{
		RecordID: recordID,
		Reason:   reason,
	})
}

// SetRemaining records a live recount of records still matching a repair
// predicate.
func (r *Reporter) SetRemaining(n int) {
	r.result.Remaining = &n
}

// Result finalizes the run summary. Success means the run completed; partial
// per-record failure does not clear it.
func (r *Reporter) Result() *model.RunResult {
	out := r.result
	out.Success = true
	return &out
}
