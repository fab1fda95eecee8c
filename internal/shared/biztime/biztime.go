// Package biztime provides business-timezone time calculations.
// All storage and transport use UTC. The business timezone is only used for
// evaluating wall-clock policy conditions (time-of-day windows) where the
// account's local day matters.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "UTC"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
// If tz is empty, defaults to UTC.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location, auto-initializing with the
// default when Init has not been called.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// AtWallClock returns the instant at h:m:s on t's business-timezone day,
// converted back to UTC. Used to compute the boundaries of time-of-day
// conditions.
func AtWallClock(t time.Time, h, m, s int) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), h, m, s, 0, Location()).UTC()
}

// NextWallClock returns the next instant (strictly after t) at h:m:s in the
// business timezone, converted to UTC.
func NextWallClock(t time.Time, h, m, s int) time.Time {
	at := AtWallClock(t, h, m, s)
	if !at.After(t) {
		at = AtWallClock(t.In(Location()).AddDate(0, 0, 1), h, m, s)
	}
	return at
}
