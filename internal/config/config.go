package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds all tracker settings, populated from environment variables.
type Config struct {
	DataDir       string
	LocationsPath string
	RetentionDays int

	CollectionTimezone *time.Location

	FetchBaseURL        string
	FetchTimeout        time.Duration
	FetchMaxRetries     int
	FetchInitialBackoff time.Duration
	FetchRateLimit      float64

	CollectConcurrency int
	CollectTimeout     time.Duration
	ScheduleAt         string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing is optional; disabled when no brokers are set.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration, used by the geocode command.
	MapboxToken     string
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

var scheduleAtPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	retentionDays, err := parsePositiveInt("RETENTION_DAYS", 8)
	if err != nil {
		return nil, err
	}

	tzName := envOrDefault("COLLECTION_TIMEZONE", "Australia/Sydney")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTION_TIMEZONE %q: %w", tzName, err)
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchBackoff, err := parseDuration("FETCH_INITIAL_BACKOFF", "2s")
	if err != nil {
		return nil, err
	}
	fetchRetries, err := parsePositiveInt("FETCH_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseRateLimit()
	if err != nil {
		return nil, err
	}
	concurrency, err := parsePositiveInt("COLLECT_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	collectTimeout, err := parseDuration("COLLECT_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	scheduleAt := envOrDefault("SCHEDULE_AT", "05:30")
	if !scheduleAtPattern.MatchString(scheduleAt) {
		return nil, fmt.Errorf("invalid SCHEDULE_AT %q: want HH:MM", scheduleAt)
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		DataDir:       envOrDefault("DATA_DIR", "data"),
		LocationsPath: envOrDefault("LOCATIONS_PATH", "locations.json"),
		RetentionDays: retentionDays,

		CollectionTimezone: tz,

		FetchBaseURL:        envOrDefault("FETCH_BASE_URL", "ftp://ftp.bom.gov.au/anon/gen/fwo"),
		FetchTimeout:        fetchTimeout,
		FetchMaxRetries:     fetchRetries,
		FetchInitialBackoff: fetchBackoff,
		FetchRateLimit:      rateLimit,

		CollectConcurrency: concurrency,
		CollectTimeout:     collectTimeout,
		ScheduleAt:         scheduleAt,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: len(brokers) > 0,
		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "forecast-updates"),

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseRateLimit() (float64, error) {
	s := os.Getenv("FETCH_RATE_LIMIT")
	if s == "" {
		return 2, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid FETCH_RATE_LIMIT: %q", s)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
