package engine

import "time"

// CheapestWindow finds the contiguous window of the requested length
// with the lowest total cost inside the resolved scope. Candidate
// starts are the interval boundaries inside the scope plus the scope
// start itself when it is not boundary-aligned. Ties go to the
// earliest start. Windows that cross a data gap are skipped entirely.
//
// Costs are accumulated and compared at full float64 precision;
// rounding happens only at presentation (see Summarize).
func CheapestWindow(s *Series, req Request, now time.Time) (Result, error) {
	want, err := req.RunDuration()
	if err != nil {
		return Result{}, err
	}

	searchStart, searchEnd, err := ResolveScope(req.Scope, s, now, want)
	if err != nil {
		return Result{}, err
	}

	latest := searchEnd.Add(-want)

	candidates := []time.Time{searchStart}
	for _, p := range s.points {
		if p.Start.After(latest) {
			break
		}
		if p.Start.After(searchStart) {
			candidates = append(candidates, p.Start)
		}
	}

	var best Result
	found := false
	for _, c := range candidates {
		cost, ok := windowCost(s, c, want, req.VATEnabled, req.Region)
		if !ok {
			continue
		}
		if !found || cost < best.TotalCost {
			best = Result{Start: c, End: c.Add(want), TotalCost: cost}
			found = true
		}
	}

	if !found {
		return Result{}, ErrEmptyResult
	}
	best.AveragePrice = best.TotalCost / want.Hours()
	return best, nil
}

// windowCost sums effective price times overlap fraction over every
// interval the window [start, start+want) touches. Returns false when
// any instant of the window is uncovered.
func windowCost(s *Series, start time.Time, want time.Duration, vatEnabled bool, region Region) (float64, bool) {
	end := start.Add(want)
	cursor := start
	total := 0.0

	for cursor.Before(end) {
		p, ok := s.At(cursor)
		if !ok {
			return 0, false
		}
		segEnd := p.End
		if segEnd.After(end) {
			segEnd = end
		}
		fraction := segEnd.Sub(cursor).Hours() / p.Width().Hours()
		total += EffectivePrice(p.RawPrice, vatEnabled, region) * fraction
		cursor = segEnd
	}

	return total, true
}
