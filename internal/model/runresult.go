package model

// MaxErrorSamples caps the number of per-record failures carried in a
// RunResult. Operators get a representative sample, not the full list.
const MaxErrorSamples = 10

// MaxErrorReasonLen caps the length of a single failure reason string.
const MaxErrorReasonLen = 200

// RunError is one sampled per-record failure from a batch run.
type RunError struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

// RunResult summarizes a batch sync or repair run. Every run that gets past
// configuration returns one of these, even on heavy partial failure; only a
// configuration error (missing credential, unreachable store) yields a bare
// top-level error instead.
//
// Remaining is set only by repair jobs and is always a live recount, never
// derived from the counters.
type RunResult struct {
	Success   bool       `json:"success"`
	DryRun    bool       `json:"dry_run,omitempty"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	Remaining *int       `json:"remaining,omitempty"`
	Errors    []RunError `json:"errors,omitempty"`
}

// Processed returns the total number of records the run attempted.
func (r *RunResult) Processed() int {
	return r.Created + r.Updated + r.Skipped + r.Failed
}
