package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/bomwx/forecast-tracker/internal/adapter/http"
	"github.com/bomwx/forecast-tracker/internal/adapter/store"
	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/observability"
	"github.com/bomwx/forecast-tracker/internal/scheduler"
)

func serveCmd() *cobra.Command {
	var skipInitialRun bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a long-lived service with a daily collection schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				os.Exit(1)
			}

			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			c, closers, err := buildCollector(cfg, "", metrics, logger)
			if err != nil {
				logger.Error("setup failed", "error", err)
				os.Exit(1)
			}
			defer closers.close(logger)

			sched := scheduler.New(c, cfg.ScheduleAt, cfg.CollectionTimezone, cfg.CollectTimeout, logger)
			if err := sched.Start(); err != nil {
				logger.Error("scheduler start failed", "error", err)
				os.Exit(1)
			}
			defer sched.Stop()

			fileStore := store.NewFileStore(cfg.DataDir, logger)
			srv := httpadapter.NewServer(cfg.HTTPAddr, c, fileStore, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", "error", err)
				}
			}()

			// One collection on startup so the service is useful immediately
			// instead of waiting for the first scheduled run.
			if !skipInitialRun {
				go func() {
					result := c.Run(ctx)
					if result.Failures > 0 {
						logger.Warn("initial collection had failures",
							"successes", result.Successes, "failures", result.Failures)
					}
				}()
			}

			<-ctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}

			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipInitialRun, "skip-initial-run", false, "wait for the schedule instead of collecting on startup")

	return cmd
}
