package reconcile

import (
	"regexp"
	"strings"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/amount"
)

// breakdown key synonyms seen in model payloads (ES/EN).
var (
	breakdownRateKeys  = []string{"rate", "vat_rate", "vat", "iva_rate", "iva"}
	breakdownBaseKeys  = []string{"base", "base_amount", "base_imponible"}
	breakdownVATKeys   = []string{"vat_amount", "iva_amount", "cuota", "importe_iva"}
	breakdownTotalKeys = []string{"total", "total_amount"}
)

// NormalizeBreakdown maps the model's vat_breakdown payload (list of
// objects, single object, or JSON-encoded string already decoded by the
// caller) into typed lines. Entries without a standard rate or without
// any monetary figure are dropped; missing members are derived from the
// rate.
func NormalizeBreakdown(raw any) []BreakdownLine {
	if raw == nil {
		return nil
	}
	var entries []any
	switch v := raw.(type) {
	case []any:
		entries = v
	case map[string]any:
		entries = []any{v}
	default:
		return nil
	}

	var lines []BreakdownLine
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		rate := amount.NormalizeRate(firstPresent(entry, breakdownRateKeys))
		base := amount.Normalize(firstPresent(entry, breakdownBaseKeys))
		vat := amount.Normalize(firstPresent(entry, breakdownVATKeys))
		total := amount.Normalize(firstPresent(entry, breakdownTotalKeys))
		if base == nil && total == nil {
			continue
		}
		// The figures outrank the declared rate: when base and vat imply
		// a standard band themselves, that band wins even over a declared
		// rate that would snap to a different one.
		if implied := impliedStandardRate(base, vat); implied != nil {
			rate = implied
		} else if rate != nil {
			if snapped, ok := constants.SnapVATRate(*rate); ok {
				rate = &snapped
			} else if base != nil && vat != nil && *base != 0 {
				rate = amount.Ptr(amount.Round2(*vat / *base * 100))
			}
		}
		if rate == nil {
			if base != nil && vat != nil && *base != 0 {
				rate = amount.Ptr(amount.Round2(*vat / *base * 100))
			} else {
				continue
			}
		}
		if base == nil {
			base = amount.Ptr(amount.Round2(*total / (1 + *rate/100)))
		}
		if vat == nil {
			vat = amount.Ptr(amount.Round2(*base * *rate / 100))
		}
		if total == nil {
			total = amount.Ptr(amount.Round2(*base + *vat))
		}
		lines = append(lines, BreakdownLine{
			Rate:  *rate,
			Base:  amount.Round2Ptr(base),
			VAT:   amount.Round2Ptr(vat),
			Total: amount.Round2Ptr(total),
		})
	}
	return lines
}

// impliedStandardRate derives the band a line's own figures point at,
// or nil when the arithmetic lands outside every standard band.
func impliedStandardRate(base, vat *float64) *float64 {
	if base == nil || vat == nil || *base == 0 {
		return nil
	}
	if snapped, ok := constants.SnapVATRate(*vat / *base * 100); ok {
		return &snapped
	}
	return nil
}

func firstPresent(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

// Aggregate is the breakdown rolled up to document level.
type Aggregate struct {
	Base  float64
	VAT   float64
	Total float64
	// Rate is set only when every line shares one rate.
	Rate *float64
}

// aggregateTolerance is how far the rolled-up totals may drift from the
// supplied top-level totals before the aggregate replaces them.
const aggregateTolerance = 0.02

// Summarize rolls breakdown lines up to a document-level aggregate, or
// nil for an empty breakdown.
func Summarize(lines []BreakdownLine) *Aggregate {
	if len(lines) == 0 {
		return nil
	}
	var agg Aggregate
	sharedRate := lines[0].Rate
	shared := true
	for _, l := range lines {
		if l.Base != nil {
			agg.Base += *l.Base
		}
		if l.VAT != nil {
			agg.VAT += *l.VAT
		}
		if l.Total != nil {
			agg.Total += *l.Total
		}
		if l.Rate != sharedRate {
			shared = false
		}
	}
	agg.Base = amount.Round2(agg.Base)
	agg.VAT = amount.Round2(agg.VAT)
	agg.Total = amount.Round2(agg.Total)
	if shared {
		agg.Rate = &sharedRate
	}
	return &agg
}

// SelfConsistent reports whether the aggregate's own triple adds up.
func (a *Aggregate) SelfConsistent() bool {
	if a == nil {
		return false
	}
	return Consistent(&a.Base, &a.VAT, &a.Total)
}

// DisagreesWith reports whether any supplied top-level figure drifts
// from the aggregate beyond the fixed tolerance.
func (a *Aggregate) DisagreesWith(base, vat, total *float64) bool {
	if a == nil {
		return false
	}
	drift := func(have *float64, want float64) bool {
		return have != nil && absDiff(*have, want) > aggregateTolerance
	}
	return drift(base, a.Base) || drift(vat, a.VAT) || drift(total, a.Total)
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// --- breakdown recovery from raw text -------------------------------

var (
	reLineAmount = regexp.MustCompile(`\d{1,6}[.,]\d{2}`)
	reLineRate   = regexp.MustCompile(`\b(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
)

var breakdownContextKeywords = []string{
	"base iva", "base i.v.a", "base i.v.a.",
	"iva", "i.v.a", "i.v.a.", "%iva", "% iva",
}

// ScanBreakdown recovers per-rate lines straight from the document text
// when the model returned none: lines near an IVA context carrying at
// least two figures and a standard rate.
func ScanBreakdown(text string) []BreakdownLine {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return nil
	}

	context := make(map[int]struct{})
	for idx, line := range lines {
		if containsAnyFold(line, breakdownContextKeywords) {
			context[idx] = struct{}{}
			context[idx+1] = struct{}{}
			context[idx+2] = struct{}{}
		}
	}
	if len(context) == 0 {
		for i := 0; i < len(lines) && i < 6; i++ {
			context[i] = struct{}{}
		}
	}

	var breakdown []BreakdownLine
	for idx, line := range lines {
		if _, ok := context[idx]; !ok {
			continue
		}
		lowered := strings.ToLower(line)
		if strings.Contains(lowered, "cliente") || strings.Contains(lowered, "facturado a") {
			continue
		}
		var floats []float64
		for _, raw := range reLineAmount.FindAllString(line, -1) {
			if v := amount.ParseString(raw); v != nil {
				floats = append(floats, *v)
			}
		}
		if len(floats) < 2 {
			continue
		}
		var rate *float64
		if m := reLineRate.FindStringSubmatch(line); m != nil {
			if r := amount.NormalizeRate(m[1]); r != nil && constants.IsStandardVATRate(*r) {
				rate = r
			}
		}
		if rate == nil {
			for _, v := range floats {
				if constants.IsStandardVATRate(v) {
					rate = amount.Ptr(v)
					break
				}
			}
		}
		if rate == nil {
			continue
		}
		base := floats[0]
		var vat float64
		if len(floats) >= 3 {
			vat = floats[1]
			// The second figure may be the rate column itself, printed
			// without its % sign.
			if snapped, ok := constants.SnapVATRate(floats[1]); ok && snapped == *rate {
				vat = floats[2]
			}
		} else {
			vat = amount.Round2(base * *rate / 100)
		}
		total := amount.Round2(base + vat)
		breakdown = append(breakdown, BreakdownLine{
			Rate:  *rate,
			Base:  amount.Ptr(amount.Round2(base)),
			VAT:   amount.Ptr(amount.Round2(vat)),
			Total: amount.Ptr(total),
		})
	}
	return breakdown
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsAnyFold(s string, subs []string) bool {
	lowered := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lowered, sub) {
			return true
		}
	}
	return false
}
