package domain

// ComputeDaysAhead returns the prediction horizon for a forecast date
// relative to the collection date: 0 for same-day, 1 for tomorrow, and so on.
// A forecast date in the past returns an *InvalidRangeError; callers drop
// that single day and continue with the batch. No upper bound is enforced —
// a forecast 20 days out is mathematically valid even though BOM products
// never produce one.
func ComputeDaysAhead(forecastDate, collectionDate Date) (int, error) {
	days := forecastDate.DaysSince(collectionDate)
	if days < 0 {
		return 0, &InvalidRangeError{ForecastDate: forecastDate, CollectionDate: collectionDate}
	}
	return days, nil
}
