package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "Booking platform reconciliation engine",
	Long:  "Syncs the booking platform's roster, appointments, and service catalog into the local system of record, with repair jobs for coordinates, cities, and corrupted schedules.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
