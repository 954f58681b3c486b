package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/domain"
	"github.com/bomwx/forecast-tracker/internal/observability"
)

// Fetcher retrieves one product's raw XML.
type Fetcher interface {
	Fetch(ctx context.Context, productID string) ([]byte, error)
}

// Parser turns raw product XML into structured forecast data.
type Parser interface {
	Parse(raw []byte) (domain.ParseResult, error)
}

// Store loads and persists location records.
type Store interface {
	Load(region, name string) (*domain.LocationRecord, error)
	Save(region, name string, rec domain.LocationRecord) error
	Archive(region, name string, rec domain.LocationRecord, expired map[domain.Date]domain.DayRecord) error
}

// Publisher announces an updated record to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec domain.LocationRecord, collectionDate domain.Date) error
}

// Result summarizes one collection run.
type Result struct {
	Total     int
	Successes int
	Failures  int
	Errors    []error
}

// Collector fetches, parses, and merges forecasts for every configured
// location, running locations concurrently up to a bounded degree.
type Collector struct {
	locations []config.Location
	fetcher   Fetcher
	parser    Parser
	store     Store
	publisher Publisher // nil when publishing is disabled

	retentionDays int
	timezone      *time.Location
	concurrency   int

	metrics *observability.Metrics
	logger  *slog.Logger
	ready   atomic.Bool
}

// New creates a Collector. publisher may be nil.
func New(cfg *config.Config, locations []config.Location, fetcher Fetcher, parser Parser, store Store, publisher Publisher, metrics *observability.Metrics, logger *slog.Logger) *Collector {
	return &Collector{
		locations:     locations,
		fetcher:       fetcher,
		parser:        parser,
		store:         store,
		publisher:     publisher,
		retentionDays: cfg.RetentionDays,
		timezone:      cfg.CollectionTimezone,
		concurrency:   cfg.CollectConcurrency,
		metrics:       metrics,
		logger:        logger,
	}
}

// CheckReadiness returns nil once at least one collection run has completed
// with any successful location.
func (c *Collector) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no collection has succeeded yet")
	}
	return nil
}

// Run collects every configured location once. The collection date is the
// current calendar date in the configured timezone, fixed at the start of the
// run so every location in one run shares it.
func (c *Collector) Run(ctx context.Context) Result {
	return c.RunForDate(ctx, domain.Today(c.timezone))
}

// RunForDate collects every configured location against an explicit
// collection date, used for backfills.
func (c *Collector) RunForDate(ctx context.Context, collectionDate domain.Date) Result {
	start := time.Now()

	c.logger.Info("collection run starting",
		"locations", len(c.locations), "collection_date", collectionDate.String())
	c.metrics.CollectionsTotal.Inc()
	c.metrics.CollectorRunning.Set(1)
	defer c.metrics.CollectorRunning.Set(0)

	var (
		mu     sync.Mutex
		result = Result{Total: len(c.locations)}
		wg     sync.WaitGroup
		sem    = make(chan struct{}, c.concurrency)
	)

	for _, loc := range c.locations {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := c.collectOne(ctx, loc, collectionDate)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures++
				result.Errors = append(result.Errors, fmt.Errorf("%s (%s): %w", loc.CityName, loc.ProductID, err))
			} else {
				result.Successes++
			}
		}()
	}
	wg.Wait()

	c.metrics.CollectionDuration.Observe(time.Since(start).Seconds())
	if result.Successes > 0 {
		c.ready.Store(true)
	}
	if result.Failures == 0 {
		c.metrics.LastSuccessTimestamp.Set(float64(time.Now().Unix()))
	}

	c.logger.Info("collection run finished",
		"total", result.Total, "successes", result.Successes, "failures", result.Failures)
	return result
}

func (c *Collector) collectOne(ctx context.Context, loc config.Location, collectionDate domain.Date) error {
	logger := c.logger.With("product_id", loc.ProductID, "city", loc.CityName, "state", loc.State)

	raw, err := c.fetcher.Fetch(ctx, loc.ProductID)
	if err != nil {
		c.metrics.LocationUpdates.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetch: %w", err)
	}

	parsed, err := c.parser.Parse(raw)
	if err != nil {
		c.metrics.LocationUpdates.WithLabelValues("parse_error").Inc()
		return fmt.Errorf("parse: %w", err)
	}
	// The product XML carries no state label, only the configured list knows it.
	parsed.Metadata.Region = loc.State

	existing, err := c.store.Load(loc.State, loc.CityName)
	if err != nil {
		c.metrics.LocationUpdates.WithLabelValues("store_error").Inc()
		return fmt.Errorf("load record: %w", err)
	}

	update := domain.UpdateLocation(existing, parsed, collectionDate, c.retentionDays)

	for _, rejected := range update.Rejected {
		logger.Warn("rejected forecast day",
			"forecast_date", rejected.ForecastDate.String(), "reason", rejected.Err)
	}
	c.metrics.DaysMerged.Add(float64(len(parsed.Days) - len(update.Rejected)))
	c.metrics.DaysRejected.Add(float64(len(update.Rejected)))
	c.metrics.RecordsExpired.Add(float64(len(update.Expired)))

	if err := c.store.Save(loc.State, loc.CityName, update.Record); err != nil {
		c.metrics.LocationUpdates.WithLabelValues("store_error").Inc()
		return fmt.Errorf("save record: %w", err)
	}

	if len(update.Expired) > 0 {
		if err := c.store.Archive(loc.State, loc.CityName, update.Record, update.Expired); err != nil {
			// The live record is already saved; losing an archive write is not fatal.
			logger.Error("archive failed", "error", err)
		}
	}

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, update.Record, collectionDate); err != nil {
			logger.Error("publish failed", "error", err)
		}
	}

	c.metrics.LocationUpdates.WithLabelValues("success").Inc()
	logger.Info("location updated",
		"days_merged", len(parsed.Days)-len(update.Rejected),
		"days_rejected", len(update.Rejected),
		"days_expired", len(update.Expired))
	return nil
}
