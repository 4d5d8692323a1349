package reconcile

import (
	"log/slog"
	"math"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/amount"
	"github.com/facturio/invoice-analyzer/internal/textscan"
)

// Input carries everything the engine needs for one document.
type Input struct {
	Model      Candidate            // from the parsed model JSON
	TaxSummary textscan.TaxSummary  // regex over the totals block
	Keyword    textscan.KeywordAmounts
	Breakdown  []BreakdownLine      // model breakdown, or text-recovered
}

// Output is the reconciled monetary result.
type Output struct {
	Base       *float64
	VATRate    *float64
	VAT        *float64
	Total      *float64
	Breakdown  []BreakdownLine
	Source     constants.ExtractionSource
	Confidence float64
	Status     constants.AnalysisStatus
	Validation Validation
}

// Engine applies the precedence policy over the extraction candidates.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// misread band: OCR reading "1.171,34" as "171,34" (or the model doing
// the inverse) puts the two candidates a round thousand-ish apart.
const (
	misreadBandLow  = 150.0
	misreadBandHigh = 350.0
)

// Reconcile evaluates the precedence policy top to bottom:
//
//  1. a self-consistent breakdown aggregate overrides all scalars;
//  2. a found, internally consistent tax-summary block wins over the
//     model, even a consistent one;
//  3. a model candidate that drifts from the keyword rescan gets the
//     disagreeing fields replaced;
//  4. otherwise the model candidate stands;
//  5. no consistent triple at all -> partial, amounts nulled.
func (e *Engine) Reconcile(in Input) Output {
	out := Output{
		Base:      in.Model.Base,
		VATRate:   in.Model.VATRate,
		VAT:       in.Model.VAT,
		Total:     in.Model.Total,
		Breakdown: in.Breakdown,
		Source:    constants.SourceLLM,
	}

	// 1. Breakdown aggregate is authoritative when internally present
	// and self-consistent.
	if agg := Summarize(in.Breakdown); agg.SelfConsistent() {
		if agg.DisagreesWith(out.Base, out.VAT, out.Total) {
			e.logger.Info("reconcile.breakdown_override",
				"base", agg.Base, "vat", agg.VAT, "total", agg.Total)
		}
		out.Base = amount.Ptr(agg.Base)
		out.VAT = amount.Ptr(agg.VAT)
		out.Total = amount.Ptr(agg.Total)
		out.VATRate = agg.Rate
		e.finish(&out, constants.SourceLLM)
		return out
	}

	// 2. Tax-summary regex beats the model for tabular totals blocks,
	// even when the model candidate is itself consistent: regex over a
	// printed totals table is higher fidelity than the model reading
	// the same characters.
	ts := in.TaxSummary
	if ts.Found && Consistent(ts.Base, ts.VAT, ts.Total) {
		out.Base = ts.Base
		out.VAT = ts.VAT
		out.Total = ts.Total
		if ts.VATRate != nil {
			out.VATRate = ts.VATRate
		}
		e.logger.Info("reconcile.regex_override",
			"base", f(ts.Base), "vat", f(ts.VAT), "total", f(ts.Total))
		e.finish(&out, constants.SourceRegexTaxSummary)
		return out
	}

	// 2b. Thousands-dot misread: a base printed "N.NNN,NN" that sits a
	// misread-band away from the model's base means the model dropped
	// the leading thousands group. The regex base wins unconditionally.
	if e.misreadBand(ts, in.Model) {
		out.Base = ts.Base
		if out.VATRate != nil {
			out.VAT = amount.Ptr(amount.Round2(*out.Base * *out.VATRate / 100))
			out.Total = amount.Ptr(amount.Round2(*out.Base + *out.VAT))
		} else if out.VAT != nil {
			out.Total = amount.Ptr(amount.Round2(*out.Base + *out.VAT))
		}
		e.finish(&out, constants.SourceRegexTaxSummary)
		return out
	}

	// 3. Model vs keyword rescan drift.
	if e.applyKeywordRescan(&out, in.Keyword) {
		e.finish(&out, constants.SourceKeywordFallback)
		return out
	}

	// 4. Model as-is, when it holds up.
	if Consistent(out.Base, out.VAT, out.Total) {
		e.finish(&out, constants.SourceLLM)
		return out
	}

	// 5. Nothing yielded a consistent triple: report partial, never
	// fabricate a number.
	e.logger.Warn("reconcile.no_consistent_triple")
	out.Base, out.VAT, out.Total, out.VATRate = nil, nil, nil, nil
	out.Source = constants.SourceFallback
	out.Confidence = constants.ConfidenceFor(constants.SourceFallback)
	out.Status = constants.StatusPartial
	out.Validation = Validation{}
	return out
}

func (e *Engine) misreadBand(ts textscan.TaxSummary, model Candidate) bool {
	if !ts.UsedThousandsDot() || ts.Base == nil || model.Base == nil {
		return false
	}
	dist := math.Abs(*ts.Base - *model.Base)
	if dist < misreadBandLow || dist > misreadBandHigh {
		return false
	}
	e.logger.Info("reconcile.thousands_misread_override",
		"regex_base", *ts.Base, "model_base", *model.Base, "distance", dist)
	return true
}

// applyKeywordRescan replaces model fields that drift significantly
// from the raw-text keyword scan. The patches are staged on a copy and
// committed only when they produce a consistent triple, so a failed
// rescan leaves the model candidate untouched for the later rules.
func (e *Engine) applyKeywordRescan(out *Output, kw textscan.KeywordAmounts) bool {
	patched := *out
	replaced := false

	if kw.Base != nil && (patched.Base == nil || significantlyDifferent(patched.Base, kw.Base)) {
		patched.Base = kw.Base
		replaced = true
		if patched.VATRate != nil {
			patched.VAT = amount.Ptr(amount.Round2(*patched.Base * *patched.VATRate / 100))
			patched.Total = amount.Ptr(amount.Round2(*patched.Base + *patched.VAT))
		}
	}
	if kw.Total != nil && (patched.Total == nil || significantlyDifferent(patched.Total, kw.Total)) {
		patched.Total = kw.Total
		replaced = true
		if patched.Base != nil && patched.VAT == nil {
			patched.VAT = amount.Ptr(amount.Round2(*patched.Total - *patched.Base))
		}
	}
	if kw.VAT != nil && patched.VAT == nil {
		patched.VAT = kw.VAT
		replaced = true
	}

	if !replaced {
		return false
	}
	if !Consistent(patched.Base, patched.VAT, patched.Total) {
		return false
	}
	out.Base, out.VAT, out.Total = patched.Base, patched.VAT, patched.Total
	e.logger.Info("reconcile.keyword_rescan_applied",
		"base", f(out.Base), "vat", f(out.VAT), "total", f(out.Total))
	return true
}

func (e *Engine) finish(out *Output, src constants.ExtractionSource) {
	out.Base = amount.Round2Ptr(out.Base)
	out.VAT = amount.Round2Ptr(out.VAT)
	out.Total = amount.Round2Ptr(out.Total)
	out.Validation = Validate(out.Base, out.VAT, out.Total)
	if out.Validation.IsConsistent != nil && *out.Validation.IsConsistent {
		out.Status = constants.StatusOK
		out.Source = src
		out.Confidence = constants.ConfidenceFor(src)
		return
	}
	// The chosen candidate did not hold up after rounding: fall back to
	// the partial policy rather than report an inconsistent "ok".
	out.Base, out.VAT, out.Total, out.VATRate = nil, nil, nil, nil
	out.Source = constants.SourceFallback
	out.Confidence = constants.ConfidenceFor(constants.SourceFallback)
	out.Status = constants.StatusPartial
	out.Validation = Validation{}
}

func f(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
