package engine

import (
	"sort"
	"time"
)

// Series holds validated, chronologically ordered price intervals.
// It is immutable after construction; callers replace the whole
// object on every fetch rather than mutating it in place.
type Series struct {
	points []PricePoint
}

// NewSeries validates raw points and discards those that start before
// the current hour boundary derived from now. Ordering and overlap
// violations fail the whole series; an empty remainder is reported as
// ErrEmptyResult. Gaps between points are allowed.
func NewSeries(points []PricePoint, now time.Time) (*Series, error) {
	cutoff := now.Truncate(time.Hour)

	kept := make([]PricePoint, 0, len(points))
	for i, p := range points {
		if !p.End.After(p.Start) {
			return nil, ErrMalformedData
		}
		if i > 0 && points[i-1].End.After(p.Start) {
			return nil, ErrMalformedData
		}
		if p.Start.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		return nil, ErrEmptyResult
	}
	return &Series{points: kept}, nil
}

// Points returns the retained intervals in ascending order
func (s *Series) Points() []PricePoint {
	return s.points
}

// Len returns the number of retained intervals
func (s *Series) Len() int {
	return len(s.points)
}

// Width returns the duration of a single interval, taken from the
// first retained point
func (s *Series) Width() time.Duration {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[0].Width()
}

// Bounds returns the earliest start and latest end over the retained
// points
func (s *Series) Bounds() (start, end time.Time, ok bool) {
	if len(s.points) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.points[0].Start, s.points[len(s.points)-1].End, true
}

// At returns the point whose interval contains t, or false when t
// falls in a gap or outside all points
func (s *Series) At(t time.Time) (PricePoint, bool) {
	i := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].End.After(t)
	})
	if i < len(s.points) && s.points[i].Contains(t) {
		return s.points[i], true
	}
	return PricePoint{}, false
}

// MinMax returns the lowest and highest effective prices over the
// retained points
func (s *Series) MinMax(vatEnabled bool, region Region) (lo, hi float64, ok bool) {
	if len(s.points) == 0 {
		return 0, 0, false
	}
	lo = EffectivePrice(s.points[0].RawPrice, vatEnabled, region)
	hi = lo
	for _, p := range s.points[1:] {
		eff := EffectivePrice(p.RawPrice, vatEnabled, region)
		if eff < lo {
			lo = eff
		}
		if eff > hi {
			hi = eff
		}
	}
	return lo, hi, true
}
