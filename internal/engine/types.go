package engine

import "time"

// PricePoint represents one fixed-duration market interval, typically
// an hour, priced in ct/kWh before VAT
type PricePoint struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	RawPrice float64   `json:"raw_price"`
}

// Width returns the interval's duration
func (p PricePoint) Width() time.Duration {
	return p.End.Sub(p.Start)
}

// Contains reports whether t falls inside the half-open interval
// [Start, End)
func (p PricePoint) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Mode selects how the search duration is derived
type Mode string

const (
	// ModeDuration runs for a directly specified duration
	ModeDuration Mode = "duration"
	// ModeEnergy derives the duration from energy amount / power draw
	ModeEnergy Mode = "energy"
)

// Request describes one cheapest-window search
type Request struct {
	Mode       Mode          `json:"mode"`
	Duration   time.Duration `json:"duration"`   // ModeDuration
	EnergyKWh  float64       `json:"energy_kwh"` // ModeEnergy
	PowerKW    float64       `json:"power_kw"`   // ModeEnergy
	Scope      Scope         `json:"scope"`
	VATEnabled bool          `json:"vat_enabled"`
	Region     Region        `json:"region"`
}

// RunDuration resolves the window length for the request. In energy
// mode the duration is energy divided by power, in hours.
func (r Request) RunDuration() (time.Duration, error) {
	switch r.Mode {
	case ModeDuration:
		if r.Duration <= 0 {
			return 0, ErrInvalidInput
		}
		return r.Duration, nil
	case ModeEnergy:
		if r.PowerKW <= 0 || r.EnergyKWh <= 0 {
			return 0, ErrInvalidInput
		}
		hours := r.EnergyKWh / r.PowerKW
		return time.Duration(hours * float64(time.Hour)), nil
	}
	return 0, ErrInvalidInput
}

// Result is the winning window at full precision. TotalCost is the
// sum of effective price times the hour-fraction of every interval
// the window touches; AveragePrice is TotalCost over the window
// length in hours.
type Result struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	TotalCost    float64   `json:"total_cost"`
	AveragePrice float64   `json:"average_price"`
}
