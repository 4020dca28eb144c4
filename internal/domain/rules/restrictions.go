package rules

import "time"

const (
	MinRestrictionDays = 1
	MaxRestrictionDays = 365
)

// CurrentlyRestricted is the single source of truth for whether a
// restriction record gates a user right now. It is evaluated at the point
// of use against a caller-supplied clock and never stored, so restrictions
// expire without a background sweep.
func CurrentlyRestricted(isActive bool, endAt, now time.Time) bool {
	return isActive && now.Before(endAt)
}

func ValidRestrictionDuration(days int) bool {
	return days >= MinRestrictionDays && days <= MaxRestrictionDays
}

func RestrictionEnd(start time.Time, days int) time.Time {
	return start.Add(time.Duration(days) * 24 * time.Hour)
}
