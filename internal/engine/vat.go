package engine

// Region identifies a supported market region
type Region string

const (
	RegionDE Region = "DE"
	RegionAT Region = "AT"
)

// VATMultiplier returns the fixed tax factor applied to raw prices in
// the region, 1.0 for unknown regions
func (r Region) VATMultiplier() float64 {
	switch r {
	case RegionDE:
		return 1.19
	case RegionAT:
		return 1.20
	}
	return 1.0
}

// Valid reports whether the region is one of the supported markets
func (r Region) Valid() bool {
	return r == RegionDE || r == RegionAT
}

// EffectivePrice maps a raw market price to the price used in cost
// calculations. Identity when VAT adjustment is disabled.
func EffectivePrice(raw float64, vatEnabled bool, region Region) float64 {
	if !vatEnabled {
		return raw
	}
	return raw * region.VATMultiplier()
}
