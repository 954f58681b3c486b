package geocode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomwx/forecast-tracker/internal/config"
)

type mockGeocoder struct {
	results map[string]Result
	errs    map[string]error
	queries []string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, state string) (Result, error) {
	key := name + "|" + state
	m.queries = append(m.queries, key)
	if err, ok := m.errs[name]; ok {
		return Result{}, err
	}
	return m.results[name], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLocations() []config.Location {
	return []config.Location{
		{ProductID: "IDV10450", CityName: "melbourne", State: "VIC"},
		{ProductID: "IDN10064", CityName: "sydney", State: "NSW"},
	}
}

func TestRun_BuildsFeatureCollection(t *testing.T) {
	geocoder := &mockGeocoder{results: map[string]Result{
		"sydney":    {Lat: -33.8688, Lon: 151.2073, FormattedAddress: "Sydney, New South Wales, Australia"},
		"melbourne": {Lat: -37.8136, Lon: 144.9631, FormattedAddress: "Melbourne, Victoria, Australia"},
	}}

	fc, err := Run(context.Background(), testLocations(), geocoder, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	// Sorted by product ID, so Sydney (IDN...) precedes Melbourne (IDV...).
	first := fc.Features[0]
	assert.Equal(t, "Point", first.Geometry.Type)
	assert.Equal(t, []float64{151.2073, -33.8688}, first.Geometry.Coordinates)
	assert.Equal(t, "IDN10064", first.Properties["product_id"])
	assert.Equal(t, "NSW", first.Properties["state"])
	assert.Equal(t, "IDV10450", fc.Features[1].Properties["product_id"])
}

func TestRun_ExpandsStateAbbreviations(t *testing.T) {
	geocoder := &mockGeocoder{results: map[string]Result{
		"sydney": {FormattedAddress: "Sydney, Australia"},
	}}

	_, err := Run(context.Background(), []config.Location{
		{ProductID: "IDN10064", CityName: "sydney", State: "NSW"},
	}, geocoder, discardLogger())
	require.NoError(t, err)

	require.Len(t, geocoder.queries, 1)
	assert.Equal(t, "sydney|New South Wales", geocoder.queries[0])
}

func TestRun_SkipsFailedLookups(t *testing.T) {
	geocoder := &mockGeocoder{
		results: map[string]Result{
			"sydney": {FormattedAddress: "Sydney, Australia"},
		},
		errs: map[string]error{"melbourne": fmt.Errorf("api down")},
	}

	fc, err := Run(context.Background(), testLocations(), geocoder, discardLogger())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "sydney", fc.Features[0].Properties["city"])
}

func TestRun_SkipsEmptyMatches(t *testing.T) {
	geocoder := &mockGeocoder{results: map[string]Result{
		"sydney": {FormattedAddress: "Sydney, Australia"},
	}}

	fc, err := Run(context.Background(), testLocations(), geocoder, discardLogger())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
}

func TestRun_AllFailedIsAnError(t *testing.T) {
	geocoder := &mockGeocoder{errs: map[string]error{
		"sydney":    fmt.Errorf("api down"),
		"melbourne": fmt.Errorf("api down"),
	}}

	_, err := Run(context.Background(), testLocations(), geocoder, discardLogger())
	require.Error(t, err)
}
