// Package domain models Bureau of Meteorology (BOM) forecast history and
// implements the merge-and-retention core of the tracker.
//
// # Data Source
//
// Forecasts originate from the BOM précis forecast product files published on
// the bureau's anonymous FTP server (ftp://ftp.bom.gov.au/anon/gen/fwo/), one
// XML file per product ID (e.g. IDN10064 for Sydney). The collector fetches
// each configured product once per day, parses it, and folds the result into
// the location's historical record.
//
// # Record Shape
//
// Each location has one [LocationRecord]. Its forecast index maps the
// forecast date (the date the weather is about) to a [DayRecord], which in
// turn maps the prediction horizon in whole days to a [Prediction]:
//
//	forecasts["2025-12-21"]["3"]  →  the forecast for Dec 21 made 3 days out
//
// The horizon is the days-ahead value:
//
//	days_ahead = forecast_date − collection_date
//
// Horizon 0 is the same-day forecast; BOM products conventionally carry
// horizons 0–7, but nothing in this package clamps larger values. A negative
// horizon means the source reported a forecast for a date already past, which
// is invalid input and rejected per day, never per batch.
//
// # Merge Semantics
//
// Merging is non-destructive except for retention: a collection run only ever
// sets the (forecast_date, days_ahead) slots it actually carries, and
// re-applying the same batch is idempotent. Retention removes whole forecast
// dates strictly older than the window (8 days by default); a date exactly at
// the window boundary is kept. All core functions are pure: they take a
// record and return a new one, never mutating their inputs and never touching
// I/O, so a run interrupted between locations cannot corrupt anything.
//
// # Optional Fields
//
// BOM products omit elements freely: a period may carry no minimum
// temperature, no icon code, or no precipitation text. Absent values stay
// absent (nil) through merge, serialization, and back. Precipitation
// probability is stored as the source's text form ("40%"), not parsed into a
// number, because the bureau formats it inconsistently across products.
package domain
