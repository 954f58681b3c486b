package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bomwx/forecast-tracker/internal/adapter/mapbox"
	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/geocode"
	"github.com/bomwx/forecast-tracker/internal/observability"
)

func geocodeCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Resolve configured cities to coordinates and write a GeoJSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				os.Exit(1)
			}
			if cfg.MapboxToken == "" {
				return fmt.Errorf("MAPBOX_TOKEN is required for geocoding")
			}

			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			locations, err := config.LoadLocations(cfg.LocationsPath, logger)
			if err != nil {
				return err
			}

			client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
			geocoder := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)

			fc, err := geocode.Run(context.Background(), locations, geocoder, logger)
			if err != nil {
				return err
			}

			raw, err := json.MarshalIndent(fc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode geojson: %w", err)
			}
			raw = append(raw, '\n')

			if err := os.WriteFile(outPath, raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			logger.Info("geojson written", "path", outPath, "features", len(fc.Features))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "locations.geojson", "output file")

	return cmd
}
