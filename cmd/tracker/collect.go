package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bomwx/forecast-tracker/internal/adapter/bom"
	kafkaadapter "github.com/bomwx/forecast-tracker/internal/adapter/kafka"
	"github.com/bomwx/forecast-tracker/internal/adapter/store"
	"github.com/bomwx/forecast-tracker/internal/collector"
	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/domain"
	"github.com/bomwx/forecast-tracker/internal/observability"
)

// Exit codes follow the convention downstream automation relies on:
// 0 every location updated, 1 some locations failed, 2 nothing succeeded.
const (
	exitOK      = 0
	exitPartial = 1
	exitFailed  = 2
)

func collectCmd() *cobra.Command {
	var (
		city    string
		dateStr string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch today's forecasts and merge them into the data files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				os.Exit(exitFailed)
			}
			if verbose {
				cfg.LogLevel = "debug"
			}

			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			c, closers, err := buildCollector(cfg, city, metrics, logger)
			if err != nil {
				logger.Error("setup failed", "error", err)
				os.Exit(exitFailed)
			}
			defer closers.close(logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var result collector.Result
			if dateStr != "" {
				date, err := domain.ParseDate(dateStr)
				if err != nil {
					logger.Error("invalid --date", "value", dateStr, "error", err)
					os.Exit(exitFailed)
				}
				result = c.RunForDate(ctx, date)
			} else {
				result = c.Run(ctx)
			}

			for _, runErr := range result.Errors {
				logger.Error("location failed", "error", runErr)
			}

			switch {
			case result.Successes == 0:
				os.Exit(exitFailed)
			case result.Failures > 0:
				os.Exit(exitPartial)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "collect only this city")
	cmd.Flags().StringVar(&dateStr, "date", "", "override the collection date (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

// closerList collects adapters that need closing when a command exits.
type closerList []interface{ Close() error }

func (l closerList) close(logger *slog.Logger) {
	for _, c := range l {
		if err := c.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}
}

func buildCollector(cfg *config.Config, city string, metrics *observability.Metrics, logger *slog.Logger) (*collector.Collector, closerList, error) {
	locations, err := config.LoadLocations(cfg.LocationsPath, logger)
	if err != nil {
		return nil, nil, err
	}
	if city != "" {
		locations = filterByCity(locations, city)
		if len(locations) == 0 {
			return nil, nil, fmt.Errorf("no configured location matches city %q", city)
		}
	}

	fetcher, err := bom.NewClient(bom.Options{
		BaseURL:        cfg.FetchBaseURL,
		Timeout:        cfg.FetchTimeout,
		MaxRetries:     cfg.FetchMaxRetries,
		InitialBackoff: cfg.FetchInitialBackoff,
		RateLimit:      cfg.FetchRateLimit,
	}, metrics, logger)
	if err != nil {
		return nil, nil, err
	}

	parser := bom.NewParser(logger)
	fileStore := store.NewFileStore(cfg.DataDir, logger)

	var (
		publisher collector.Publisher
		closers   closerList
	)
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		closers = append(closers, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	c := collector.New(cfg, locations, fetcher, parser, fileStore, publisher, metrics, logger)
	return c, closers, nil
}

func filterByCity(locations []config.Location, city string) []config.Location {
	var matched []config.Location
	for _, loc := range locations {
		if strings.EqualFold(loc.CityName, city) {
			matched = append(matched, loc)
		}
	}
	return matched
}
