// Package reconcile merges the extraction candidates (model JSON,
// tax-summary regex, keyword fallback) and the VAT breakdown into one
// consistent monetary result.
package reconcile

import (
	"math"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/amount"
)

// Candidate is a provisional base/rate/vat/total quadruple from one
// extraction source. Candidates live for a single analysis and are
// consumed by the engine.
type Candidate struct {
	Source  constants.ExtractionSource
	Base    *float64
	VATRate *float64
	VAT     *float64
	Total   *float64
}

// BreakdownLine is the fragment of an invoice attributable to a single
// VAT rate.
type BreakdownLine struct {
	Rate  float64  `json:"rate"`
	Base  *float64 `json:"base"`
	VAT   *float64 `json:"vat_amount"`
	Total *float64 `json:"total"`
}

// Validation is the arithmetic consistency verdict on the final triple.
type Validation struct {
	IsConsistent *bool    `json:"is_consistent"`
	Difference   *float64 `json:"difference"`
}

// Validate checks |base+vat-total| <= max(0.05, 0.01*total). All-null
// verdict when any member of the triple is missing.
func Validate(base, vat, total *float64) Validation {
	if base == nil || vat == nil || total == nil {
		return Validation{}
	}
	diff := amount.Round2((*base + *vat) - *total)
	tol := tolerance(*total)
	ok := math.Abs(diff) <= tol
	return Validation{IsConsistent: &ok, Difference: &diff}
}

// Consistent is the bare predicate form of Validate.
func Consistent(base, vat, total *float64) bool {
	v := Validate(base, vat, total)
	return v.IsConsistent != nil && *v.IsConsistent
}

func tolerance(total float64) float64 {
	return math.Max(0.05, math.Abs(total)*0.01)
}

// significantlyDifferent compares a candidate value against a reference
// with the same proportional tolerance as the consistency test.
func significantlyDifferent(a, b *float64) bool {
	if a == nil || b == nil {
		return false
	}
	return math.Abs(*a-*b) > tolerance(*b)
}
