package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func sydneyMeta() Metadata {
	return Metadata{
		LocationID:  "IDN10064",
		DisplayName: "Sydney",
		Region:      "NSW",
		Timezone:    "EST",
	}
}

func prediction(tempMax float64) Prediction {
	return Prediction{
		IconCode:     intPtr(1),
		TempMax:      floatPtr(tempMax),
		SummaryShort: strPtr("Sunny."),
	}
}

// --- tests ---

func TestMerge_FirstCollection(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	entries := []Entry{{Date: date, DaysAhead: 0, Prediction: prediction(28)}}

	merged := Merge(nil, entries, sydneyMeta())

	assert.Equal(t, "IDN10064", merged.LocationID)
	assert.Equal(t, "Sydney", merged.DisplayName)
	assert.Equal(t, "NSW", merged.Region)
	assert.Equal(t, "EST", merged.Timezone)

	require.Len(t, merged.Forecasts, 1)
	require.Contains(t, merged.Forecasts, date)
	require.Contains(t, merged.Forecasts[date], 0)
	require.NotNil(t, merged.Forecasts[date][0].TempMax)
	assert.Equal(t, 28.0, *merged.Forecasts[date][0].TempMax)
}

func TestMerge_IncrementalUpdatePreservesHistory(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	existing := Merge(nil, []Entry{{Date: date, DaysAhead: 1, Prediction: prediction(25)}}, sydneyMeta())

	merged := Merge(&existing, []Entry{{Date: date, DaysAhead: 0, Prediction: prediction(28)}}, sydneyMeta())

	require.Contains(t, merged.Forecasts, date)
	assert.Len(t, merged.Forecasts[date], 2)
	assert.Equal(t, 25.0, *merged.Forecasts[date][1].TempMax)
	assert.Equal(t, 28.0, *merged.Forecasts[date][0].TempMax)
}

func TestMerge_Idempotent(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	existing := Merge(nil, []Entry{{Date: date, DaysAhead: 2, Prediction: prediction(23)}}, sydneyMeta())
	batch := []Entry{
		{Date: date, DaysAhead: 0, Prediction: prediction(28)},
		{Date: date.AddDays(1), DaysAhead: 1, Prediction: prediction(30)},
	}

	once := Merge(&existing, batch, sydneyMeta())
	twice := Merge(&once, batch, sydneyMeta())

	assert.Empty(t, cmp.Diff(once, twice))
}

func TestMerge_SameSlotOverwrites(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	existing := Merge(nil, []Entry{{Date: date, DaysAhead: 0, Prediction: prediction(25)}}, sydneyMeta())

	// A retry the same day re-collects the same horizon with fresher data.
	merged := Merge(&existing, []Entry{{Date: date, DaysAhead: 0, Prediction: prediction(27)}}, sydneyMeta())

	require.Len(t, merged.Forecasts[date], 1)
	assert.Equal(t, 27.0, *merged.Forecasts[date][0].TempMax)
}

func TestMerge_NonDestructive(t *testing.T) {
	day1 := NewDate(2025, time.December, 21)
	day2 := NewDate(2025, time.December, 22)
	existing := Merge(nil, []Entry{
		{Date: day1, DaysAhead: 3, Prediction: prediction(22)},
		{Date: day2, DaysAhead: 4, Prediction: prediction(24)},
	}, sydneyMeta())

	merged := Merge(&existing, []Entry{{Date: day1, DaysAhead: 0, Prediction: prediction(28)}}, sydneyMeta())

	// Untouched slots and untouched dates pass through byte-for-byte.
	assert.Empty(t, cmp.Diff(existing.Forecasts[day1][3], merged.Forecasts[day1][3]))
	assert.Empty(t, cmp.Diff(existing.Forecasts[day2], merged.Forecasts[day2]))
}

func TestMerge_DoesNotMutateExisting(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	existing := Merge(nil, []Entry{{Date: date, DaysAhead: 1, Prediction: prediction(25)}}, sydneyMeta())
	snapshot := Merge(&existing, nil, Metadata{})

	_ = Merge(&existing, []Entry{{Date: date, DaysAhead: 1, Prediction: prediction(99)}}, sydneyMeta())

	assert.Empty(t, cmp.Diff(snapshot, existing))
	assert.Equal(t, 25.0, *existing.Forecasts[date][1].TempMax)
}

func TestMerge_EmptyBatchReturnsExistingUnchanged(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	existing := Merge(nil, []Entry{{Date: date, DaysAhead: 0, Prediction: prediction(28)}}, sydneyMeta())

	merged := Merge(&existing, nil, sydneyMeta())

	assert.Empty(t, cmp.Diff(existing, merged))
}

func TestMerge_EmptyBatchNoExisting_ValidEmptyRecord(t *testing.T) {
	merged := Merge(nil, nil, sydneyMeta())

	assert.Equal(t, "IDN10064", merged.LocationID)
	assert.NotNil(t, merged.Forecasts)
	assert.Empty(t, merged.Forecasts)
}

func TestMerge_MetadataNeverRegressesToUnknown(t *testing.T) {
	existing := Merge(nil, nil, sydneyMeta())

	// A later parse with missing labels must not erase known ones; a changed
	// timezone is last-write-wins.
	merged := Merge(&existing, nil, Metadata{Timezone: "EDT"})

	assert.Equal(t, "IDN10064", merged.LocationID)
	assert.Equal(t, "Sydney", merged.DisplayName)
	assert.Equal(t, "NSW", merged.Region)
	assert.Equal(t, "EDT", merged.Timezone)
}

func TestMerge_PreservesAbsentFields(t *testing.T) {
	date := NewDate(2025, time.December, 21)
	sparse := Prediction{TempMax: floatPtr(31)} // everything else absent

	merged := Merge(nil, []Entry{{Date: date, DaysAhead: 2, Prediction: sparse}}, sydneyMeta())

	got := merged.Forecasts[date][2]
	assert.Nil(t, got.IconCode)
	assert.Nil(t, got.TempMin)
	assert.Nil(t, got.PrecipitationProb)
	assert.Nil(t, got.SummaryShort)
	assert.Nil(t, got.SummaryLong)
	require.NotNil(t, got.TempMax)
	assert.Equal(t, 31.0, *got.TempMax)
}
