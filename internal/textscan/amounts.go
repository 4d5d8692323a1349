package textscan

import (
	"strings"

	"github.com/facturio/invoice-analyzer/internal/amount"
)

// KeywordAmounts is the result of the label-driven fallback scan.
type KeywordAmounts struct {
	Base  *float64
	VAT   *float64
	Total *float64
}

var (
	baseKeywords  = []string{"BASE IMPONIBLE", "BASE IVA", "BASE"}
	totalKeywords = []string{"TOTAL FACTURA", "TOTAL EUR", "TOTAL BRUTO", "TOTAL IVA INCLUIDO", "TOTAL"}
	vatKeywords   = []string{"I.V.A", "IVA"}

	currencyMarkers = []string{"EUR", "€"}
)

// lookahead is how many lines below a label may still carry its amount
// (table layouts put labels and figures on separate lines).
const lookahead = 3

// ExtractKeywordAmounts scans labeled lines ("BASE", "TOTAL…", "IVA")
// and picks, per label, the best currency-shaped number on the line or
// within the next few lines: numbers adjacent to a currency marker win,
// otherwise the largest.
func ExtractKeywordAmounts(text string) KeywordAmounts {
	lines := splitLines(text)
	return KeywordAmounts{
		Base:  findAmountForKeywords(lines, baseKeywords),
		VAT:   findAmountForKeywords(lines, vatKeywords),
		Total: findAmountForKeywords(lines, totalKeywords),
	}
}

func findAmountForKeywords(lines []string, keywords []string) *float64 {
	for idx, line := range lines {
		if !containsAny(strings.ToUpper(line), keywords) {
			continue
		}
		if v := bestAmountNear(lines, idx); v != nil {
			return v
		}
	}
	return nil
}

// bestAmountNear gathers candidates from the labeled line and up to
// lookahead following lines, stopping at the first line that yields any.
func bestAmountNear(lines []string, idx int) *float64 {
	for offset := 0; offset <= lookahead && idx+offset < len(lines); offset++ {
		line := lines[idx+offset]
		matches := reAmountShape.FindAllStringIndex(line, -1)
		if len(matches) == 0 {
			continue
		}
		var best *float64
		bestMarked := false
		for _, m := range matches {
			raw := line[m[0]:m[1]]
			v := amount.ParseString(raw)
			if v == nil {
				continue
			}
			marked := nearCurrencyMarker(line, m[1])
			switch {
			case best == nil:
				best, bestMarked = v, marked
			case marked && !bestMarked:
				best, bestMarked = v, true
			case marked == bestMarked && *v > *best:
				best = v
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// nearCurrencyMarker reports whether a currency token follows the match
// within a few characters ("1.417,32 EUR", "99,00€").
func nearCurrencyMarker(line string, end int) bool {
	tail := line[end:]
	if len(tail) > 6 {
		tail = tail[:6]
	}
	upper := strings.ToUpper(tail)
	for _, marker := range currencyMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
