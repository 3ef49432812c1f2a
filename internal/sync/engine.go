package sync

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

const defaultPageSize = 100

// Engine runs the batch sync jobs against the booking platform. One Engine is
// long-lived; each job run acquires a named lock so concurrent runs of the
// same job are rejected rather than interleaved.
type Engine struct {
	store    store.Store
	platform setmore.Client
	geocoder geocode.Client
	classify *Classifier
	locks    *RunLock
	pageSize int
	pace     *rate.Limiter
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithGeocoder enables address enrichment when customers are first created
// from booking payloads. Without it, customers are created without
// coordinates and picked up later by the geocode repair job.
func WithGeocoder(g geocode.Client) EngineOption {
	return func(e *Engine) { e.geocoder = g }
}

// WithPageSize sets the platform page size for list calls.
func WithPageSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithRecordInterval paces record processing, spreading store and API load.
func WithRecordInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.pace = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRunLock shares a lock registry with other job runners, typically the
// repair runner behind the same HTTP server.
func WithRunLock(l *RunLock) EngineOption {
	return func(e *Engine) { e.locks = l }
}

// NewEngine creates a sync Engine over the given store and platform client.
func NewEngine(s store.Store, platform setmore.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    s,
		platform: platform,
		classify: NewClassifier(),
		locks:    NewRunLock(),
		pageSize: defaultPageSize,
		logger:   zap.L().With(zap.String("component", "sync")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
