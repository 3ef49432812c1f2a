package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/fieldsync/internal/model"
)

var (
	repairLimit  int
	repairDryRun bool
	repairDate   string
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Run targeted data-repair jobs",
}

var repairGeocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Backfill missing customer coordinates by geocoding stored addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepair(cmd, func(ctx context.Context, env *repairEnv) (*model.RunResult, error) {
			return env.runner.Coordinates(ctx, repairLimit, repairDryRun)
		})
	},
}

var repairCityCmd = &cobra.Command{
	Use:   "city",
	Short: "Fill missing city names by reverse geocoding coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepair(cmd, func(ctx context.Context, env *repairEnv) (*model.RunResult, error) {
			return env.runner.City(ctx, repairLimit, repairDryRun)
		})
	},
}

var repairBookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Re-fetch bookings created on a date and rewrite their schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := repairDate
		if date == "" {
			date = cfg.Sync.BadSyncDate
		}
		return runRepair(cmd, func(ctx context.Context, env *repairEnv) (*model.RunResult, error) {
			return env.runner.Bookings(ctx, date, repairLimit, repairDryRun)
		})
	},
}

func runRepair(cmd *cobra.Command, job func(context.Context, *repairEnv) (*model.RunResult, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := initRepairEnv(ctx)
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
	repairCmd.PersistentFlags().IntVar(&repairLimit, "limit", 0, "max records per run (default from config)")
	repairCmd.PersistentFlags().BoolVar(&repairDryRun, "dry-run", false, "report what would change without writing")
	repairBookingsCmd.Flags().StringVar(&repairDate, "date", "", "creation date to repair, YYYY-MM-DD (default sync.bad_sync_date)")
	repairCmd.AddCommand(repairGeocodeCmd, repairCityCmd, repairBookingsCmd)
	rootCmd.AddCommand(repairCmd)
}
