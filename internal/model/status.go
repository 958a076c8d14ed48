package model

import "time"

// Status is the derived freshness state of an item.
type Status string

const (
	StatusFresh    Status = "fresh"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
)

// ExpiringWindowDays is the countdown threshold below which an item is expiring.
const ExpiringWindowDays = 3

// ExpiresIn reports the whole-day countdown from now's calendar date to
// the expiration date. ok is false when no expiration date is set.
// Re-evaluate at read time: "today" advances independent of any mutation.
func ExpiresIn(expiration *Date, now time.Time) (int, bool) {
	if expiration == nil {
		return 0, false
	}
	return expiration.DaysUntil(now), true
}

// StatusFor derives the status from an optional expiration date:
// no date is fresh, a negative countdown is expired, a countdown within
// ExpiringWindowDays is expiring, anything later is fresh.
func StatusFor(expiration *Date, now time.Time) Status {
	d, ok := ExpiresIn(expiration, now)
	if !ok {
		return StatusFresh
	}
	switch {
	case d < 0:
		return StatusExpired
	case d <= ExpiringWindowDays:
		return StatusExpiring
	default:
		return StatusFresh
	}
}
