package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/repair"
	"github.com/sells-group/fieldsync/internal/store"
	"github.com/sells-group/fieldsync/internal/sync"
	"github.com/sells-group/fieldsync/pkg/geocode"
	"github.com/sells-group/fieldsync/pkg/telephony"
)

var servePort int

// serverEnv holds the long-lived dependencies behind the operator HTTP
// surface. The engine and telephony client are nil when their credentials are
// not configured; the affected endpoints report that instead of failing at
// startup, so a partially configured deployment still serves what it can.
type serverEnv struct {
	store  store.Store
	engine *sync.Engine
	runner *repair.Runner
	tel    telephony.Client
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the operator HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initServerEnv(ctx)
		if err != nil {
			return err
		}
		defer env.store.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: env.routes(),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func initServerEnv(ctx context.Context) (*serverEnv, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	env := &serverEnv{store: s}
	locks := sync.NewRunLock()

	repairOpts := []repair.Option{
		repair.WithDefaultLimit(cfg.Repair.DefaultLimit),
		repair.WithRunLock(locks),
	}

	var geocoder geocode.Client
	if cfg.Geocode.Key != "" {
		geocoder, err = newGeocoder()
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		repairOpts = append(repairOpts, repair.WithGeocoder(geocoder))
	}

	if cfg.Setmore.Token != "" {
		platform, err := newPlatformClient()
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		engineOpts := []sync.EngineOption{
			sync.WithPageSize(cfg.Sync.PageSize),
			sync.WithRecordInterval(cfg.Sync.RecordInterval),
			sync.WithRunLock(locks),
		}
		if geocoder != nil {
			engineOpts = append(engineOpts, sync.WithGeocoder(geocoder))
		}
		env.engine = sync.NewEngine(s, platform, engineOpts...)
		repairOpts = append(repairOpts, repair.WithPlatform(platform))
	}

	if cfg.Telephony.AccountSID != "" && cfg.Telephony.AuthToken != "" {
		tel, err := telephony.NewClient(cfg.Telephony.AccountSID, cfg.Telephony.AuthToken)
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		env.tel = tel
	}

	env.runner = repair.NewRunner(s, repairOpts...)
	return env, nil
}

// logRequests is a minimal zap request logger.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (env *serverEnv) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/jobs/sync/{entity}", env.handleSync)
	r.Post("/jobs/repair/{job}", env.handleRepair)
	r.Get("/calls/{sid}", env.handleCallLookup)
	return r
}

func (env *serverEnv) handleSync(w http.ResponseWriter, r *http.Request) {
	if env.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "booking platform token not configured")
		return
	}
	dryRun := queryBool(r, "dry_run")

	var (
		result *model.RunResult
		err    error
	)
	switch chi.URLParam(r, "entity") {
	case "roster":
		result, err = env.engine.SyncRoster(r.Context(), dryRun)
	case "bookings":
		result, err = env.engine.SyncBookings(r.Context(), dryRun)
	case "services":
		result, err = env.engine.SyncServices(r.Context(), dryRun)
	default:
		writeError(w, http.StatusNotFound, "unknown sync entity")
		return
	}
	writeRunResult(w, result, err)
}

func (env *serverEnv) handleRepair(w http.ResponseWriter, r *http.Request) {
	dryRun := queryBool(r, "dry_run")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		result *model.RunResult
		err    error
	)
	switch chi.URLParam(r, "job") {
	case "geocode":
		result, err = env.runner.Coordinates(r.Context(), limit, dryRun)
	case "city":
		result, err = env.runner.City(r.Context(), limit, dryRun)
	case "bookings":
		date := r.URL.Query().Get("date")
		if date == "" {
			date = cfg.Sync.BadSyncDate
		}
		result, err = env.runner.Bookings(r.Context(), date, limit, dryRun)
	default:
		writeError(w, http.StatusNotFound, "unknown repair job")
		return
	}
	writeRunResult(w, result, err)
}

func (env *serverEnv) handleCallLookup(w http.ResponseWriter, r *http.Request) {
	if env.tel == nil {
		writeError(w, http.StatusServiceUnavailable, "telephony credentials not configured")
		return
	}

	call, err := env.tel.FetchCall(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	customer, err := sync.NewMatcher(env.store).MatchCustomerByPhone(r.Context(), call.From)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, callLookup{Call: call, Customer: customer})
}

// writeRunResult maps a job outcome to an HTTP response: lock contention is
// 409, any other top-level error is a configuration or infrastructure
// problem, and a result with partial failures is still 200.
func writeRunResult(w http.ResponseWriter, result *model.RunResult, err error) {
	if err != nil {
		if eris.Is(err, sync.ErrRunInProgress) {
			writeError(w, http.StatusConflict, "run already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
