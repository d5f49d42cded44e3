package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResolveScope(t *testing.T) {
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]float64, 24)
	for i := range prices {
		prices[i] = 10
	}

	tests := []struct {
		name      string
		now       time.Time
		scope     Scope
		want      time.Duration
		wantStart time.Time
		wantEnd   time.Time
		wantErr   error
	}{
		{
			name:      "next hours from mid-interval",
			now:       base.Add(10*time.Hour + 30*time.Minute),
			scope:     NextHours(5),
			want:      2 * time.Hour,
			wantStart: base.Add(10 * time.Hour),
			wantEnd:   base.Add(15*time.Hour + 30*time.Minute),
		},
		{
			name:      "next hours clipped to series end",
			now:       base.Add(20 * time.Hour),
			scope:     NextHours(12),
			want:      2 * time.Hour,
			wantStart: base.Add(20 * time.Hour),
			wantEnd:   base.Add(24 * time.Hour),
		},
		{
			name:      "tonight before evening boundary",
			now:       base.Add(10 * time.Hour),
			scope:     Tonight(),
			want:      2 * time.Hour,
			wantStart: base.Add(22 * time.Hour),
			wantEnd:   base.Add(24 * time.Hour), // morning boundary clipped to series end
		},
		{
			name:      "tonight already past evening boundary",
			now:       base.Add(22*time.Hour + 30*time.Minute),
			scope:     Tonight(),
			want:      time.Hour,
			wantStart: base.Add(23 * time.Hour),
			wantEnd:   base.Add(24 * time.Hour),
		},
		{
			name:      "tonight exactly on evening boundary",
			now:       base.Add(22 * time.Hour),
			scope:     Tonight(),
			want:      time.Hour,
			wantStart: base.Add(22 * time.Hour),
			wantEnd:   base.Add(24 * time.Hour),
		},
		{
			name:      "custom bounds clipped",
			now:       base,
			scope:     Custom(base.Add(-2*time.Hour), base.Add(30*time.Hour)),
			want:      3 * time.Hour,
			wantStart: base,
			wantEnd:   base.Add(24 * time.Hour),
		},
		{
			name:    "clipped span shorter than duration",
			now:     base.Add(22 * time.Hour),
			scope:   Tonight(),
			want:    3 * time.Hour,
			wantErr: ErrInsufficientRange,
		},
		{
			name:    "zero hours scope",
			now:     base,
			scope:   NextHours(0),
			wantErr: ErrInvalidInput,
		},
		{
			name:    "reversed custom bounds",
			now:     base,
			scope:   Custom(base.Add(5*time.Hour), base.Add(2*time.Hour)),
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSeries(hourlyPoints(base, prices), tt.now)
			if err != nil {
				t.Fatalf("building series: %v", err)
			}

			start, end, err := ResolveScope(tt.scope, s, tt.now, tt.want)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestResolveScopeMinimumRangeMessage(t *testing.T) {
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries(hourlyPoints(base, []float64{10, 10}), base)
	if err != nil {
		t.Fatalf("building series: %v", err)
	}

	_, _, err = ResolveScope(Custom(base, base.Add(2*time.Hour)), s, base, 3*time.Hour)
	if !errors.Is(err, ErrInsufficientRange) {
		t.Fatalf("got error %v, want ErrInsufficientRange", err)
	}
	if !strings.Contains(err.Error(), "minimum time range of 3h required") {
		t.Errorf("error message %q missing minimum range hint", err.Error())
	}
}
