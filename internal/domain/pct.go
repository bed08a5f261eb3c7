package domain

import "math"

// NormalizePct converts a provider price-change value to percent.
// Providers disagree on scale: values with magnitude below 1 are taken as
// fractions and scaled by 100, everything else is already a percent.
func NormalizePct(v float64) float64 {
	if math.Abs(v) < 1 {
		return v * 100
	}
	return v
}
