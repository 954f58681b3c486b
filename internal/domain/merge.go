package domain

// Merge folds a batch of entries into an existing record and returns the
// result as a new record. The inputs are never mutated.
//
// existing may be nil on the first-ever collection for a location, in which
// case the metadata comes entirely from meta. Each entry sets exactly one
// (forecast date, days ahead) slot, overwriting whatever that slot held; all
// other slots and all other forecast dates pass through untouched, so
// applying the same batch twice yields the same record as applying it once.
//
// Location metadata follows last-non-empty-wins: an empty meta field never
// regresses a previously known value back to unknown.
//
// An empty batch is not an error; it returns existing unchanged (or an
// empty-but-valid record when existing is nil). The caller decides whether
// that is worth logging.
func Merge(existing *LocationRecord, entries []Entry, meta Metadata) LocationRecord {
	merged := LocationRecord{Forecasts: make(map[Date]DayRecord)}

	if existing != nil {
		merged.LocationID = existing.LocationID
		merged.DisplayName = existing.DisplayName
		merged.Region = existing.Region
		merged.Timezone = existing.Timezone
		for date, day := range existing.Forecasts {
			copied := make(DayRecord, len(day))
			for horizon, p := range day {
				copied[horizon] = p
			}
			merged.Forecasts[date] = copied
		}
	}

	if meta.LocationID != "" {
		merged.LocationID = meta.LocationID
	}
	if meta.DisplayName != "" {
		merged.DisplayName = meta.DisplayName
	}
	if meta.Region != "" {
		merged.Region = meta.Region
	}
	if meta.Timezone != "" {
		merged.Timezone = meta.Timezone
	}

	for _, e := range entries {
		day, ok := merged.Forecasts[e.Date]
		if !ok {
			day = make(DayRecord)
			merged.Forecasts[e.Date] = day
		}
		day[e.DaysAhead] = e.Prediction
	}

	return merged
}
