package textscan

import (
	"regexp"

	"strings"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/amount"
)

// TaxSummary is the tabular totals block of an invoice, read off the
// lines following an anchor keyword. BaseRaw keeps the matched base
// string so reconciliation can recognize the dot-as-thousands notation.
type TaxSummary struct {
	Found   bool
	Base    *float64
	VATRate *float64
	VAT     *float64
	Total   *float64
	BaseRaw string
}

// UsedThousandsDot reports whether the base was printed in the
// "NNN.NNN,NN" notation, where OCR is known to misread a leading "1.".
func (s TaxSummary) UsedThousandsDot() bool {
	return reThousandsDot.MatchString(s.BaseRaw)
}

var (
	anchorKeywords = []string{"IMPUESTOS", "BASE IMPONIBLE"}

	reThousandsDot = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+,\d{2}$`)
	reRateToken    = regexp.MustCompile(`(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
)

// summaryWindow bounds how many lines after the anchor belong to the
// totals block. columnarWindow is wider: OCR of a table often emits the
// whole label column first and the value column several lines below it.
const (
	summaryWindow  = 8
	columnarWindow = 16
)

// columnarTolerance bounds how far base+vat may drift from the total
// when pairing the value column arithmetically.
const columnarTolerance = 0.02

// ExtractTaxSummary locates the tax-summary block and reads base, VAT
// rate, VAT amount and total from it. A missing member of the triple is
// back-filled arithmetically once the other two are known. Found is
// true only when a full base/vat/total triple came out.
func ExtractTaxSummary(text string) TaxSummary {
	lines := splitLines(text)
	anchor := -1
	for idx, line := range lines {
		if containsAny(strings.ToUpper(line), anchorKeywords) {
			anchor = idx
			break
		}
	}
	if anchor == -1 {
		return TaxSummary{}
	}

	end := anchor + summaryWindow
	if end > len(lines) {
		end = len(lines)
	}
	window := lines[anchor:end]

	var out TaxSummary
	for _, line := range window {
		upper := strings.ToUpper(line)

		if out.VATRate == nil {
			if m := reRateToken.FindStringSubmatch(line); m != nil {
				if r := amount.NormalizeRate(m[1]); r != nil {
					if snapped, ok := constants.SnapVATRate(*r); ok {
						out.VATRate = &snapped
					}
				}
			}
		}

		isTotalLine := strings.Contains(upper, "TOTAL")
		isVATLine := strings.Contains(upper, "IVA") || strings.Contains(upper, "I.V.A")

		switch {
		case isTotalLine:
			if out.Total == nil {
				out.Total = largestAmount(line)
			}
		case isVATLine:
			if out.VAT == nil {
				// Strip the rate token so "21,00%" is not read as the amount.
				out.VAT = largestAmount(reRateToken.ReplaceAllString(line, ""))
			}
		default:
			// Base hunting excludes lines polluted by competing labels.
			if out.Base == nil {
				if raw := firstAmountRaw(line); raw != "" {
					out.Base = amount.ParseString(raw)
					out.BaseRaw = raw
				}
			}
		}
	}

	backfill(&out)
	out.Found = out.Base != nil && out.VAT != nil && out.Total != nil
	if !out.Found {
		if col := columnarSummary(lines, anchor); col.Found {
			return col
		}
	}
	return out
}

type colFigure struct {
	value float64
	raw   string
}

// columnarSummary handles table OCR where labels and values come out as
// two separate runs of lines. The figures below the anchor are paired
// arithmetically: the largest is the total and the pair summing to it
// supplies base and VAT. The rate comes from the pair's own math,
// falling back to a bare standard-band figure left in the column (a
// rate printed without its % sign).
func columnarSummary(lines []string, anchor int) TaxSummary {
	end := anchor + columnarWindow
	if end > len(lines) {
		end = len(lines)
	}

	var figures []colFigure
	for _, line := range lines[anchor:end] {
		for _, raw := range reAmountShape.FindAllString(line, -1) {
			if v := amount.ParseString(raw); v != nil {
				figures = append(figures, colFigure{*v, raw})
			}
		}
	}
	if len(figures) < 3 {
		return TaxSummary{}
	}

	totalIdx := 0
	for i, fig := range figures {
		if fig.value > figures[totalIdx].value {
			totalIdx = i
		}
	}
	total := figures[totalIdx].value

	for i := range figures {
		for j := range figures {
			if i == j || i == totalIdx || j == totalIdx {
				continue
			}
			base, vat := figures[i], figures[j]
			if base.value < vat.value {
				continue
			}
			diff := base.value + vat.value - total
			if diff > columnarTolerance || diff < -columnarTolerance {
				continue
			}
			out := TaxSummary{
				Found:   true,
				Base:    amount.Ptr(base.value),
				VAT:     amount.Ptr(vat.value),
				Total:   amount.Ptr(total),
				BaseRaw: base.raw,
			}
			if base.value != 0 {
				if snapped, ok := constants.SnapVATRate(vat.value / base.value * 100); ok {
					out.VATRate = &snapped
				}
			}
			if out.VATRate == nil {
				for k, fig := range figures {
					if k == i || k == j || k == totalIdx {
						continue
					}
					if snapped, ok := constants.SnapVATRate(fig.value); ok && snapped != 0 {
						out.VATRate = &snapped
						break
					}
				}
			}
			return out
		}
	}
	return TaxSummary{}
}

func backfill(s *TaxSummary) {
	switch {
	case s.Base != nil && s.VAT != nil && s.Total == nil:
		s.Total = amount.Ptr(amount.Round2(*s.Base + *s.VAT))
	case s.Base != nil && s.Total != nil && s.VAT == nil:
		s.VAT = amount.Ptr(amount.Round2(*s.Total - *s.Base))
	case s.VAT != nil && s.Total != nil && s.Base == nil:
		s.Base = amount.Ptr(amount.Round2(*s.Total - *s.VAT))
	case s.Base != nil && s.VATRate != nil && s.VAT == nil && s.Total == nil:
		s.VAT = amount.Ptr(amount.Round2(*s.Base * *s.VATRate / 100))
		s.Total = amount.Ptr(amount.Round2(*s.Base + *s.VAT))
	}
	if s.VATRate == nil && s.Base != nil && s.VAT != nil && *s.Base != 0 {
		if snapped, ok := constants.SnapVATRate(*s.VAT / *s.Base * 100); ok {
			s.VATRate = &snapped
		}
	}
}

func largestAmount(line string) *float64 {
	var best *float64
	for _, raw := range reAmountShape.FindAllString(line, -1) {
		if v := amount.ParseString(raw); v != nil {
			if best == nil || *v > *best {
				best = v
			}
		}
	}
	return best
}

func firstAmountRaw(line string) string {
	return reAmountShape.FindString(line)
}
