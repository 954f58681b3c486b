package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/observability"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and locations file without collecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("config invalid", "error", err)
				os.Exit(1)
			}

			// Skipped entries surface as warnings on the logger.
			logger := observability.NewLogger(cfg)
			locations, err := config.LoadLocations(cfg.LocationsPath, logger)
			if err != nil {
				return fmt.Errorf("locations invalid: %w", err)
			}

			byState := make(map[string]int)
			for _, loc := range locations {
				byState[loc.State]++
			}

			fmt.Printf("config OK: %d locations in %s\n", len(locations), cfg.LocationsPath)
			for state, count := range byState {
				fmt.Printf("  %s: %d\n", state, count)
			}
			fmt.Printf("data dir: %s (retention %d days, timezone %s)\n",
				cfg.DataDir, cfg.RetentionDays, cfg.CollectionTimezone)
			return nil
		},
	}
}
