package domain

// DefaultRetentionDays is the standard retention window: a forecast date is
// kept while it is at most this many days before the collection date.
const DefaultRetentionDays = 8

// Expire partitions rec's forecast index around the retention window. The
// first return value is rec with every forecast date strictly more than
// retentionDays before asOf removed; the second holds exactly the removed
// dates, for callers that archive what falls out of the window. The expired
// map is nil when nothing expired.
//
// A date exactly retentionDays old is kept — the boundary is strict.
// Future dates are by definition inside the window and never removed.
// Removal is all-or-nothing per forecast date; surviving DayRecords are
// passed through untouched.
func Expire(rec LocationRecord, asOf Date, retentionDays int) (LocationRecord, map[Date]DayRecord) {
	kept := rec
	kept.Forecasts = make(map[Date]DayRecord, len(rec.Forecasts))

	var expired map[Date]DayRecord
	for date, day := range rec.Forecasts {
		if asOf.DaysSince(date) > retentionDays {
			if expired == nil {
				expired = make(map[Date]DayRecord)
			}
			expired[date] = day
			continue
		}
		kept.Forecasts[date] = day
	}
	return kept, expired
}

// ApplyRetention returns rec with every forecast date outside the retention
// window removed. Pure and deterministic given rec and asOf.
func ApplyRetention(rec LocationRecord, asOf Date, retentionDays int) LocationRecord {
	kept, _ := Expire(rec, asOf, retentionDays)
	return kept
}
