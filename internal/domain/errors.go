package domain

import "fmt"

// InvalidRangeError reports a forecast date earlier than its collection date,
// i.e. a negative days-ahead horizon. The offending day is dropped; the rest
// of the batch proceeds.
type InvalidRangeError struct {
	ForecastDate   Date
	CollectionDate Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("forecast date %s precedes collection date %s", e.ForecastDate, e.CollectionDate)
}

// MalformedPredictionError reports a forecast day that is structurally
// unusable, such as one with no forecast date at all.
type MalformedPredictionError struct {
	Reason string
}

func (e *MalformedPredictionError) Error() string {
	return "malformed prediction: " + e.Reason
}
