package engine

import (
	"errors"
	"math"
	"testing"
	"time"
)

func hourlyPoints(base time.Time, prices []float64) []PricePoint {
	points := make([]PricePoint, 0, len(prices))
	for i, price := range prices {
		points = append(points, PricePoint{
			Start:    base.Add(time.Duration(i) * time.Hour),
			End:      base.Add(time.Duration(i+1) * time.Hour),
			RawPrice: price,
		})
	}
	return points
}

func TestNewSeriesValidation(t *testing.T) {
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		points  []PricePoint
		now     time.Time
		wantErr error
		wantLen int
	}{
		{
			name:    "valid contiguous day",
			points:  hourlyPoints(base, []float64{10, 12, 8, 9}),
			now:     base,
			wantLen: 4,
		},
		{
			name: "overlapping intervals rejected",
			points: []PricePoint{
				{Start: base, End: base.Add(time.Hour), RawPrice: 10},
				{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute), RawPrice: 12},
			},
			now:     base,
			wantErr: ErrMalformedData,
		},
		{
			name: "out of order intervals rejected",
			points: []PricePoint{
				{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour), RawPrice: 10},
				{Start: base, End: base.Add(time.Hour), RawPrice: 12},
			},
			now:     base,
			wantErr: ErrMalformedData,
		},
		{
			name: "zero width interval rejected",
			points: []PricePoint{
				{Start: base, End: base, RawPrice: 10},
			},
			now:     base,
			wantErr: ErrMalformedData,
		},
		{
			name:    "past points dropped at hour boundary",
			points:  hourlyPoints(base, []float64{10, 12, 8, 9}),
			now:     base.Add(2*time.Hour + 30*time.Minute),
			wantLen: 2, // 02:00 and 03:00 remain; 02:00 is the current hour
		},
		{
			name:    "entirely past series is empty",
			points:  hourlyPoints(base, []float64{10, 12}),
			now:     base.Add(5 * time.Hour),
			wantErr: ErrEmptyResult,
		},
		{
			name: "gaps are allowed",
			points: []PricePoint{
				{Start: base, End: base.Add(time.Hour), RawPrice: 10},
				{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour), RawPrice: 12},
			},
			now:     base,
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSeries(tt.points, tt.now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Len() != tt.wantLen {
				t.Errorf("got %d points, want %d", s.Len(), tt.wantLen)
			}
		})
	}
}

func TestSeriesAt(t *testing.T) {
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	points := []PricePoint{
		{Start: base, End: base.Add(time.Hour), RawPrice: 10},
		{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour), RawPrice: 12},
	}
	s, err := NewSeries(points, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p, ok := s.At(base.Add(30 * time.Minute)); !ok || p.RawPrice != 10 {
		t.Errorf("At inside first interval: got (%v, %v)", p, ok)
	}
	if _, ok := s.At(base.Add(90 * time.Minute)); ok {
		t.Errorf("At inside gap should be absent")
	}
	if _, ok := s.At(base.Add(time.Hour)); ok {
		t.Errorf("At on first interval end should be absent (gap starts there)")
	}
	if p, ok := s.At(base.Add(2 * time.Hour)); !ok || p.RawPrice != 12 {
		t.Errorf("At on second interval start: got (%v, %v)", p, ok)
	}
	if _, ok := s.At(base.Add(3 * time.Hour)); ok {
		t.Errorf("At past last interval should be absent")
	}
}

func TestSeriesBoundsAndMinMax(t *testing.T) {
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries(hourlyPoints(base, []float64{10, -2, 8}), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lo, hi, ok := s.Bounds()
	if !ok || !lo.Equal(base) || !hi.Equal(base.Add(3*time.Hour)) {
		t.Errorf("Bounds() = (%v, %v, %v)", lo, hi, ok)
	}

	min, max, ok := s.MinMax(false, RegionDE)
	if !ok || min != -2 || max != 10 {
		t.Errorf("MinMax(raw) = (%v, %v, %v)", min, max, ok)
	}

	min, max, ok = s.MinMax(true, RegionDE)
	if !ok || min != -2*1.19 || max != 10*1.19 {
		t.Errorf("MinMax(vat) = (%v, %v, %v)", min, max, ok)
	}
}

func TestEffectivePrice(t *testing.T) {
	if got := EffectivePrice(10, false, RegionDE); got != 10 {
		t.Errorf("disabled VAT should be identity, got %v", got)
	}
	if got := EffectivePrice(10, true, RegionDE); math.Abs(got-11.9) > 1e-9 {
		t.Errorf("DE VAT: got %v, want 11.9", got)
	}
	if got := EffectivePrice(10, true, RegionAT); math.Abs(got-12.0) > 1e-9 {
		t.Errorf("AT VAT: got %v, want 12.0", got)
	}
	if got := EffectivePrice(10, true, Region("XX")); got != 10 {
		t.Errorf("unknown region should be identity, got %v", got)
	}
}
