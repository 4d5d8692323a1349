package constants

import "math"

// StandardVATRates are the recognized Spanish VAT bands.
var StandardVATRates = []float64{0, 4, 10, 21}

// RateSnapTolerance is how far a detected rate may sit from a standard
// band and still be snapped onto it.
const RateSnapTolerance = 0.25

// SnapVATRate returns the nearest standard band when rate is within
// RateSnapTolerance of it, otherwise ok=false.
func SnapVATRate(rate float64) (snapped float64, ok bool) {
	for _, std := range StandardVATRates {
		if math.Abs(rate-std) <= RateSnapTolerance {
			return std, true
		}
	}
	return 0, false
}

// IsStandardVATRate reports whether rate is exactly one of the bands.
func IsStandardVATRate(rate float64) bool {
	for _, std := range StandardVATRates {
		if rate == std {
			return true
		}
	}
	return false
}
