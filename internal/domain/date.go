package domain

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day component. Forecast and
// collection dates compare as whole days, never as instants, so a single
// collection run cannot straddle a timezone boundary mid-batch.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalizing overflowing components the way
// time.Date does (e.g. January 32 becomes February 1).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.toTime().Format("2006-01-02")
}

// AddDays returns the date n days after d; n may be negative.
func (d Date) AddDays(n int) Date {
	return DateOf(d.toTime().AddDate(0, 0, n))
}

// DaysSince returns the number of whole days from other to d. Positive when
// d is later than other.
func (d Date) DaysSince(other Date) int {
	return int(d.toTime().Sub(other.toTime()) / (24 * time.Hour))
}

func (d Date) Before(other Date) bool { return d.toTime().Before(other.toTime()) }

func (d Date) After(other Date) bool { return other.Before(d) }

func (d Date) IsZero() bool { return d == Date{} }

// toTime anchors the date at UTC midnight so day arithmetic is exact and
// never affected by daylight saving transitions.
func (d Date) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// MarshalText implements encoding.TextMarshaler so Date works as a JSON map
// key; encoding/json sorts such keys, and ISO dates sort chronologically.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
