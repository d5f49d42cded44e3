package engine

import (
	"fmt"
	"time"
)

// ScopeKind selects how the admissible search range is derived
type ScopeKind string

const (
	// ScopeTonight searches from the late evening boundary through the
	// early morning boundary of the following day
	ScopeTonight ScopeKind = "tonight"
	// ScopeNextHours searches from now through now plus N hours
	ScopeNextHours ScopeKind = "next_hours"
	// ScopeCustom searches between explicit bounds
	ScopeCustom ScopeKind = "custom"
)

// Boundary hours for the tonight scope, in the caller's location.
const (
	eveningHour = 22
	morningHour = 6
)

// Scope is the user-selected admissible time range to search within
type Scope struct {
	Kind  ScopeKind `json:"kind"`
	Hours int       `json:"hours,omitempty"` // ScopeNextHours
	From  time.Time `json:"from,omitempty"`  // ScopeCustom
	To    time.Time `json:"to,omitempty"`    // ScopeCustom
}

func Tonight() Scope {
	return Scope{Kind: ScopeTonight}
}

func NextHours(n int) Scope {
	return Scope{Kind: ScopeNextHours, Hours: n}
}

func Custom(from, to time.Time) Scope {
	return Scope{Kind: ScopeCustom, From: from, To: to}
}

// ResolveScope turns a scope into concrete search bounds, clipped to
// the series' own bounds. It fails with ErrInsufficientRange when the
// clipped span cannot hold a window of length want, so callers can
// surface a specific minimum-range message instead of an empty result.
func ResolveScope(sc Scope, s *Series, now time.Time, want time.Duration) (time.Time, time.Time, error) {
	var start, end time.Time

	switch sc.Kind {
	case ScopeTonight:
		evening := time.Date(now.Year(), now.Month(), now.Day(), eveningHour, 0, 0, 0, now.Location())
		if now.Before(evening) {
			start = evening
		} else {
			// Already inside tonight's window: begin at the next
			// interval boundary.
			start = ceilHour(now)
		}
		morning := time.Date(now.Year(), now.Month(), now.Day(), morningHour, 0, 0, 0, now.Location())
		for !morning.After(start) {
			morning = morning.AddDate(0, 0, 1)
		}
		end = morning
	case ScopeNextHours:
		if sc.Hours <= 0 {
			return time.Time{}, time.Time{}, ErrInvalidInput
		}
		start = now.Truncate(time.Hour)
		end = now.Add(time.Duration(sc.Hours) * time.Hour)
	case ScopeCustom:
		if !sc.To.After(sc.From) {
			return time.Time{}, time.Time{}, ErrInvalidInput
		}
		start, end = sc.From, sc.To
	default:
		return time.Time{}, time.Time{}, ErrInvalidInput
	}

	lo, hi, ok := s.Bounds()
	if !ok {
		return time.Time{}, time.Time{}, ErrEmptyResult
	}
	if start.Before(lo) {
		start = lo
	}
	if end.After(hi) {
		end = hi
	}

	if !end.After(start) || end.Sub(start) < want {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: minimum time range of %s required", ErrInsufficientRange, FormatDuration(want))
	}
	return start, end, nil
}

// ceilHour rounds t up to the next hour boundary, leaving exact
// boundaries untouched
func ceilHour(t time.Time) time.Time {
	floored := t.Truncate(time.Hour)
	if floored.Equal(t) {
		return t
	}
	return floored.Add(time.Hour)
}
