package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic
// collection dates.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current calendar date in loc. The collection date for a
// run is Today in the configured collection timezone (Australia/Sydney by
// default), matching how the bureau's product files are dated.
func Today(loc *time.Location) Date {
	return DateOf(clock.Now().In(loc))
}
