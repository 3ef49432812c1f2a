package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/repair"
	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/internal/sync"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/setmore"
)

// openStore creates the configured store backend. The caller owns Close.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %s", cfg.Store.Driver)
	}
}

func newPlatformClient() (setmore.Client, error) {
	return setmore.NewClient(cfg.Setmore.Token,
		setmore.WithBaseURL(cfg.Setmore.BaseURL),
		setmore.WithRateLimit(cfg.Setmore.RateRPS),
	)
}

func newGeocoder() (geocode.Client, error) {
	return geocode.NewClient(cfg.Geocode.Key,
		geocode.WithRateLimit(cfg.Geocode.RateRPS),
	)
}

// syncEnv bundles the dependencies a sync job run needs.
type syncEnv struct {
	store  store.Store
	engine *sync.Engine
}

func (e *syncEnv) Close() {
	e.store.Close() //nolint:errcheck
}

// initSyncEnv wires the store, platform client, and sync engine. The geocoder
// is optional: without a key, booking syncs simply create customers without
// coordinates.
func initSyncEnv(ctx context.Context) (*syncEnv, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	platform, err := newPlatformClient()
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}

	opts := []sync.EngineOption{
		sync.WithPageSize(cfg.Sync.PageSize),
		sync.WithRecordInterval(cfg.Sync.RecordInterval),
	}
	if cfg.Geocode.Key != "" {
		geocoder, err := newGeocoder()
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		opts = append(opts, sync.WithGeocoder(geocoder))
	}

	return &syncEnv{
		store:  s,
		engine: sync.NewEngine(s, platform, opts...),
	}, nil
}

// repairEnv bundles the dependencies a repair job run needs.
type repairEnv struct {
	store  store.Store
	runner *repair.Runner
}

func (e *repairEnv) Close() {
	e.store.Close() //nolint:errcheck
}

// initRepairEnv wires the store and repair runner. Only the dependencies the
// configured credentials allow are attached; each job checks its own.
func initRepairEnv(ctx context.Context) (*repairEnv, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []repair.Option{
		repair.WithDefaultLimit(cfg.Repair.DefaultLimit),
	}
	if cfg.Geocode.Key != "" {
		geocoder, err := newGeocoder()
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		opts = append(opts, repair.WithGeocoder(geocoder))
	}
	if cfg.Setmore.Token != "" {
		platform, err := newPlatformClient()
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		opts = append(opts, repair.WithPlatform(platform))
	}

	return &repairEnv{
		store:  s,
		runner: repair.NewRunner(s, opts...),
	}, nil
}

// printResult writes a run summary to stdout as indented JSON.
func printResult(result *model.RunResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal run result")
	}
	fmt.Println(string(out))
	return nil
}
