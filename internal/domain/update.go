package domain

// RejectedDay records one forecast day dropped from a batch and why. The
// caller decides whether to log, count, or alert; nothing here is fatal to
// the batch or to sibling locations.
type RejectedDay struct {
	ForecastDate Date
	Err          error
}

// UpdateResult is the outcome of one UpdateLocation call.
type UpdateResult struct {
	// Record is the merged and pruned location record, ready to persist.
	Record LocationRecord
	// Rejected lists the forecast days that could not be merged.
	Rejected []RejectedDay
	// Expired holds the forecast dates retention removed, keyed by date,
	// so the caller can archive them. Nil when nothing expired.
	Expired map[Date]DayRecord
}

// UpdateLocation is the composed entry point the collector drives: it
// computes the days-ahead horizon for each parsed day, merges the valid ones
// into existing, then applies retention as of collectionDate. Pure function
// of its inputs — no clock, no I/O, no hidden state.
//
// Days whose forecast date is missing or precedes collectionDate are dropped
// individually and reported in Rejected; the rest of the batch still merges.
func UpdateLocation(existing *LocationRecord, parsed ParseResult, collectionDate Date, retentionDays int) UpdateResult {
	var (
		entries  []Entry
		rejected []RejectedDay
	)

	for _, day := range parsed.Days {
		if day.Date.IsZero() {
			rejected = append(rejected, RejectedDay{
				ForecastDate: day.Date,
				Err:          &MalformedPredictionError{Reason: "missing forecast date"},
			})
			continue
		}
		horizon, err := ComputeDaysAhead(day.Date, collectionDate)
		if err != nil {
			rejected = append(rejected, RejectedDay{ForecastDate: day.Date, Err: err})
			continue
		}
		entries = append(entries, Entry{Date: day.Date, DaysAhead: horizon, Prediction: day.Prediction})
	}

	merged := Merge(existing, entries, parsed.Metadata)
	kept, expired := Expire(merged, collectionDate, retentionDays)

	return UpdateResult{Record: kept, Rejected: rejected, Expired: expired}
}
