// Package ordering provides the newest-first comparison used by every listing.
package ordering

import "time"

// NewestFirst compares two optional timestamps for a descending sort. A missing value sorts
// after a present one, later times sort before earlier ones, and ties (including two
// missing values) return 0.
func NewestFirst(a, b time.Time, aOK, bOK bool) int {
	switch {
	case !aOK && !bOK:
		return 0
	case !aOK:
		return 1
	case !bOK:
		return -1
	}
	switch {
	case a.After(b):
		return -1
	case a.Before(b):
		return 1
	default:
		return 0
	}
}

// Present reports whether t carries a value.
func Present(t time.Time) bool { return !t.IsZero() }
