package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/fieldsync/internal/model"
)

var (
	syncDryRun   bool
	syncPageSize int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile booking platform data into the local store",
}

var syncRosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Sync the staff and crew roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, func(ctx context.Context, env *syncEnv) (*model.RunResult, error) {
			return env.engine.SyncRoster(ctx, syncDryRun)
		})
	},
}

var syncBookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Sync appointments and their customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, func(ctx context.Context, env *syncEnv) (*model.RunResult, error) {
			return env.engine.SyncBookings(ctx, syncDryRun)
		})
	},
}

var syncServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Sync the service catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, func(ctx context.Context, env *syncEnv) (*model.RunResult, error) {
			return env.engine.SyncServices(ctx, syncDryRun)
		})
	},
}

func runSync(cmd *cobra.Command, job func(context.Context, *syncEnv) (*model.RunResult, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if syncPageSize > 0 {
		cfg.Sync.PageSize = syncPageSize
	}

	env, err := initSyncEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := job(ctx, env)
	if err != nil {
		return err
	}
	return printResult(result)
}

func init() {
	syncCmd.PersistentFlags().BoolVar(&syncDryRun, "dry-run", false, "report what would change without writing")
	syncCmd.PersistentFlags().IntVar(&syncPageSize, "page-size", 0, "platform page size (default from config)")
	syncCmd.AddCommand(syncRosterCmd, syncBookingsCmd, syncServicesCmd)
	rootCmd.AddCommand(syncCmd)
}
