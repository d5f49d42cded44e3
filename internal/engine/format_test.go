package engine

import (
	"math"
	"testing"
	"time"
)

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"two decimals", 12.345, 12.35},
		{"already rounded", 7.5, 7.5},
		{"negative", -3.456, -3.46},
		{"negative zero normalized", -0.001, 0},
		{"positive near zero", 0.004, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundPrice(tt.in)
			if got != tt.want {
				t.Errorf("RoundPrice(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got == 0 && math.Signbit(got) {
				t.Errorf("RoundPrice(%v) kept a negative sign on zero", tt.in)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 12, 1, 3, 0, 0, 0, time.UTC)
	res := Result{
		Start:        base,
		End:          base.Add(2*time.Hour + 30*time.Minute),
		TotalCost:    13.333333,
		AveragePrice: 5.333333,
	}

	sum := Summarize(res, Request{Mode: ModeDuration, Duration: 2*time.Hour + 30*time.Minute})
	if sum.Hours != 2 || sum.Minutes != 30 {
		t.Errorf("duration breakdown = %dh %dm, want 2h 30m", sum.Hours, sum.Minutes)
	}
	if sum.TotalCost != 13.33 || sum.AveragePrice != 5.33 {
		t.Errorf("rounded prices = (%v, %v), want (13.33, 5.33)", sum.TotalCost, sum.AveragePrice)
	}
	if sum.PowerKW != 0 || sum.EnergyKWh != 0 || sum.EnergyCost != 0 {
		t.Errorf("duration mode must not carry energy fields: %+v", sum)
	}

	energySum := Summarize(res, Request{Mode: ModeEnergy, EnergyKWh: 4, PowerKW: 2})
	if energySum.PowerKW != 2 || energySum.EnergyKWh != 4 {
		t.Errorf("energy fields not echoed: %+v", energySum)
	}
	if energySum.EnergyCost != RoundPrice(5.333333*4) {
		t.Errorf("energy cost = %v, want %v", energySum.EnergyCost, RoundPrice(5.333333*4))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{3 * time.Hour, "3h"},
		{90 * time.Minute, "1h 30m"},
		{45 * time.Minute, "45m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
