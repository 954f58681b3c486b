package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomwx/forecast-tracker/internal/config"
	"github.com/bomwx/forecast-tracker/internal/domain"
	"github.com/bomwx/forecast-tracker/internal/observability"
)

type mockFetcher struct {
	payloads map[string][]byte
	errs     map[string]error
}

func (m *mockFetcher) Fetch(_ context.Context, productID string) ([]byte, error) {
	if err, ok := m.errs[productID]; ok {
		return nil, err
	}
	return m.payloads[productID], nil
}

type mockParser struct {
	results map[string]domain.ParseResult
	err     error
}

func (m *mockParser) Parse(raw []byte) (domain.ParseResult, error) {
	if m.err != nil {
		return domain.ParseResult{}, m.err
	}
	return m.results[string(raw)], nil
}

type mockStore struct {
	mu       sync.Mutex
	existing map[string]*domain.LocationRecord
	saved    map[string]domain.LocationRecord
	archived map[string]map[domain.Date]domain.DayRecord
	loadErr  error
	saveErr  error
	archErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		existing: make(map[string]*domain.LocationRecord),
		saved:    make(map[string]domain.LocationRecord),
		archived: make(map[string]map[domain.Date]domain.DayRecord),
	}
}

func (m *mockStore) Load(region, name string) (*domain.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.existing[region+"/"+name], nil
}

func (m *mockStore) Save(region, name string, rec domain.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[region+"/"+name] = rec
	return nil
}

func (m *mockStore) Archive(region, name string, _ domain.LocationRecord, expired map[domain.Date]domain.DayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.archErr != nil {
		return m.archErr
	}
	m.archived[region+"/"+name] = expired
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.LocationRecord
	dates     []domain.Date
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, rec domain.LocationRecord, collectionDate domain.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, rec)
	m.dates = append(m.dates, collectionDate)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sydneyTZ(t *testing.T) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return tz
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		RetentionDays:      8,
		CollectionTimezone: sydneyTZ(t),
		CollectConcurrency: 2,
	}
}

func floatPtr(f float64) *float64 { return &f }

// fakeNow is 2025-12-21 09:00 in Sydney (2025-12-20 22:00 UTC).
var fakeNow = time.Date(2025, time.December, 20, 22, 0, 0, 0, time.UTC)

func sydneyParse(dates ...domain.Date) domain.ParseResult {
	result := domain.ParseResult{
		Metadata: domain.Metadata{
			LocationID:  "IDN10064",
			DisplayName: "Sydney",
			Timezone:    "EST",
		},
	}
	for _, d := range dates {
		result.Days = append(result.Days, domain.ForecastDay{
			Date:       d,
			Prediction: domain.Prediction{TempMax: floatPtr(28)},
		})
	}
	return result
}

func newTestCollector(t *testing.T, locations []config.Location, fetcher Fetcher, parser Parser, store Store, publisher Publisher) *Collector {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fakeNow))
	t.Cleanup(func() { domain.SetClock(nil) })
	return New(testConfig(t), locations, fetcher, parser, store, publisher,
		observability.NewMetricsForTesting(), discardLogger())
}

func sydneyOnly() []config.Location {
	return []config.Location{{ProductID: "IDN10064", CityName: "sydney", State: "NSW"}}
}

func TestRun_CollectsAndSaves(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection, collection.AddDays(1)),
	}}
	store := newMockStore()

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, nil)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Successes)
	assert.Equal(t, 0, result.Failures)

	saved, ok := store.saved["NSW/sydney"]
	require.True(t, ok)
	assert.Equal(t, "IDN10064", saved.LocationID)
	assert.Equal(t, "NSW", saved.Region)
	assert.Len(t, saved.Forecasts, 2)
	assert.Contains(t, saved.Forecasts[collection], 0)
	assert.Contains(t, saved.Forecasts[collection.AddDays(1)], 1)
}

func TestRun_CollectionDateIsLocalCalendarDate(t *testing.T) {
	// 22:00 UTC on the 20th is already the 21st in Sydney.
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(domain.NewDate(2025, time.December, 21)),
	}}
	store := newMockStore()
	publisher := &mockPublisher{}

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, publisher)
	result := c.Run(context.Background())

	require.Equal(t, 1, result.Successes)
	require.Len(t, publisher.dates, 1)
	assert.Equal(t, domain.NewDate(2025, time.December, 21), publisher.dates[0])

	// A horizon of 0, not -1: the forecast date matches the Sydney date.
	saved := store.saved["NSW/sydney"]
	assert.Contains(t, saved.Forecasts[domain.NewDate(2025, time.December, 21)], 0)
}

func TestRun_MergesWithExistingRecord(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	existing := domain.Merge(nil, []domain.Entry{
		{Date: collection, DaysAhead: 3, Prediction: domain.Prediction{TempMax: floatPtr(25)}},
	}, domain.Metadata{LocationID: "IDN10064", DisplayName: "Sydney", Region: "NSW"})

	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection),
	}}
	store := newMockStore()
	store.existing["NSW/sydney"] = &existing

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, nil)
	c.Run(context.Background())

	saved := store.saved["NSW/sydney"]
	assert.Len(t, saved.Forecasts[collection], 2)
}

func TestRun_ArchivesExpiredDates(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	stale := collection.AddDays(-9)
	existing := domain.Merge(nil, []domain.Entry{
		{Date: stale, DaysAhead: 0, Prediction: domain.Prediction{TempMax: floatPtr(20)}},
	}, domain.Metadata{LocationID: "IDN10064", Region: "NSW"})

	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection),
	}}
	store := newMockStore()
	store.existing["NSW/sydney"] = &existing

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, nil)
	c.Run(context.Background())

	saved := store.saved["NSW/sydney"]
	assert.NotContains(t, saved.Forecasts, stale)

	archived := store.archived["NSW/sydney"]
	require.Contains(t, archived, stale)
	assert.Equal(t, 20.0, *archived[stale][0].TempMax)
}

func TestRun_FetchFailureCountsAsFailure(t *testing.T) {
	fetcher := &mockFetcher{errs: map[string]error{"IDN10064": fmt.Errorf("ftp down")}}
	store := newMockStore()

	c := newTestCollector(t, sydneyOnly(), fetcher, &mockParser{}, store, nil)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Failures)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "ftp down")
	assert.Empty(t, store.saved)
}

func TestRun_ParseFailureCountsAsFailure(t *testing.T) {
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("garbage")}}
	parser := &mockParser{err: fmt.Errorf("bad xml")}
	store := newMockStore()

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, nil)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Failures)
	assert.Empty(t, store.saved)
}

func TestRun_OneFailureDoesNotStopOthers(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	locations := []config.Location{
		{ProductID: "IDN10064", CityName: "sydney", State: "NSW"},
		{ProductID: "IDV10450", CityName: "melbourne", State: "VIC"},
	}
	fetcher := &mockFetcher{
		payloads: map[string][]byte{"IDV10450": []byte("melbourne-xml")},
		errs:     map[string]error{"IDN10064": fmt.Errorf("ftp down")},
	}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"melbourne-xml": {
			Metadata: domain.Metadata{LocationID: "IDV10450", DisplayName: "Melbourne"},
			Days:     []domain.ForecastDay{{Date: collection, Prediction: domain.Prediction{TempMax: floatPtr(22)}}},
		},
	}}
	store := newMockStore()

	c := newTestCollector(t, locations, fetcher, parser, store, nil)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Successes)
	assert.Equal(t, 1, result.Failures)
	assert.Contains(t, store.saved, "VIC/melbourne")
}

func TestRun_RejectedDaysDoNotFailTheLocation(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection.AddDays(-1), collection),
	}}
	store := newMockStore()

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, nil)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Successes)
	saved := store.saved["NSW/sydney"]
	assert.Len(t, saved.Forecasts, 1)
}

func TestRun_PublishErrorIsNotFatal(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection),
	}}
	store := newMockStore()
	publisher := &mockPublisher{err: fmt.Errorf("kafka down")}

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, publisher)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Successes)
	assert.Contains(t, store.saved, "NSW/sydney")
}

func TestRun_ArchiveErrorIsNotFatal(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	stale := collection.AddDays(-20)
	existing := domain.Merge(nil, []domain.Entry{
		{Date: stale, DaysAhead: 0, Prediction: domain.Prediction{}},
	}, domain.Metadata{LocationID: "IDN10064"})

	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection),
	}}
	store := newMockStore()
	store.existing["NSW/sydney"] = &existing
	store.archErr = fmt.Errorf("disk full")

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, nil)
	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Successes)
}

func TestRunForDate_OverridesCollectionDate(t *testing.T) {
	backfill := domain.NewDate(2025, time.November, 1)
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(backfill.AddDays(2)),
	}}
	store := newMockStore()
	publisher := &mockPublisher{}

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, store, publisher)
	result := c.RunForDate(context.Background(), backfill)

	require.Equal(t, 1, result.Successes)
	assert.Equal(t, backfill, publisher.dates[0])
	saved := store.saved["NSW/sydney"]
	assert.Contains(t, saved.Forecasts[backfill.AddDays(2)], 2)
}

func TestCheckReadiness(t *testing.T) {
	collection := domain.NewDate(2025, time.December, 21)
	fetcher := &mockFetcher{payloads: map[string][]byte{"IDN10064": []byte("sydney-xml")}}
	parser := &mockParser{results: map[string]domain.ParseResult{
		"sydney-xml": sydneyParse(collection),
	}}

	c := newTestCollector(t, sydneyOnly(), fetcher, parser, newMockStore(), nil)

	require.Error(t, c.CheckReadiness(context.Background()))
	c.Run(context.Background())
	assert.NoError(t, c.CheckReadiness(context.Background()))
}
