package engine

import (
	"fmt"
	"math"
	"time"
)

// Summary is the presentation form of a search result: prices rounded
// to two decimals, duration broken into whole hours and minutes, and
// the energy inputs echoed back in energy mode.
type Summary struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	TotalCost    float64   `json:"total_cost"`
	AveragePrice float64   `json:"average_price"`
	Hours        int       `json:"hours"`
	Minutes      int       `json:"minutes"`
	PowerKW      float64   `json:"power_kw,omitempty"`
	EnergyKWh    float64   `json:"energy_kwh,omitempty"`
	EnergyCost   float64   `json:"energy_cost,omitempty"`
}

// Summarize packages the winning window for display. Pure; the full
// precision Result is left untouched for callers that keep searching.
func Summarize(res Result, req Request) Summary {
	d := res.End.Sub(res.Start)
	sum := Summary{
		Start:        res.Start,
		End:          res.End,
		TotalCost:    RoundPrice(res.TotalCost),
		AveragePrice: RoundPrice(res.AveragePrice),
		Hours:        int(d / time.Hour),
		Minutes:      int(d % time.Hour / time.Minute),
	}
	if req.Mode == ModeEnergy {
		sum.PowerKW = req.PowerKW
		sum.EnergyKWh = req.EnergyKWh
		sum.EnergyCost = RoundPrice(res.AveragePrice * req.EnergyKWh)
	}
	return sum
}

// RoundPrice rounds to two decimals and normalizes negative zero so a
// value like -0.001 displays as 0.00 rather than -0.00
func RoundPrice(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// FormatDuration renders a duration as "Nh" or "Nh Mm" for messages
// such as the minimum-range error
func FormatDuration(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
