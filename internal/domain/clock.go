package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock swaps the package clock. Tests install a fake clock so snapshot
// timestamps and look-back cutoffs are reproducible; nil restores the real
// clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current UTC time from the package clock.
func Now() time.Time {
	return clock.Now().UTC()
}
