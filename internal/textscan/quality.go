// Package textscan holds the regex heuristics that run over raw invoice
// text: acquisition-quality signals, the tax-summary block extractor,
// the keyword-amount fallback and the VAT breakdown scan.
package textscan

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reAmountShape = regexp.MustCompile(`\d{1,3}(?:[.\s]\d{3})*(?:,\d{2})|\d+[.,]\d{2}`)
	rePercent     = regexp.MustCompile(`\d{1,2}\s?%`)
	reToken       = regexp.MustCompile(`[A-Za-zÀ-ÿ0-9]{2,}`)
)

// IsTextSignificant reports whether the text layer of a PDF carries
// enough alphanumeric content to skip OCR.
func IsTextSignificant(text string, minChars int) bool {
	if text == "" {
		return false
	}
	useful := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			useful++
		}
	}
	return useful >= minChars
}

// IsLowQualityOCR flags OCR output that is too thin or too noisy to be
// worth a model call: short, digit-dominated, garbage-heavy, or with
// almost no distinct tokens.
func IsLowQualityOCR(text string) bool {
	const minChars = 200
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return true
	}
	total := len([]rune(stripped))
	alnum, letters, garbage := 0, 0, 0
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r):
			letters++
			alnum++
		case unicode.IsDigit(r):
			alnum++
		case unicode.IsSpace(r) || strings.ContainsRune(".,:-/%()", r):
		default:
			garbage++
		}
	}
	if alnum < minChars {
		return true
	}
	if float64(letters)/float64(alnum) < 0.3 {
		return true
	}
	if float64(garbage)/float64(max(total, 1)) > 0.3 {
		return true
	}
	distinct := make(map[string]struct{})
	for _, tok := range reToken.FindAllString(stripped, -1) {
		distinct[tok] = struct{}{}
	}
	return len(distinct) < 10
}

var amountHintKeywords = []string{"total", "base", "imponible", "iva", "vat", "subtotal"}

// HasAmountHints reports whether the text looks like it contains an
// amounts section: a totals keyword next to a currency-shaped number,
// or an amount and a percentage anywhere in the document.
func HasAmountHints(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	if containsAny(lowered, amountHintKeywords) {
		for _, line := range splitLines(text) {
			lineLower := strings.ToLower(line)
			if !containsAny(lineLower, amountHintKeywords) {
				continue
			}
			if reAmountShape.MatchString(line) || rePercent.MatchString(line) {
				return true
			}
		}
	}
	return reAmountShape.MatchString(text) && rePercent.MatchString(text)
}

var exemptionKeywords = []string{
	"exento",
	"exenta",
	"exencion",
	"exención",
	"inversion del sujeto pasivo",
	"inversión del sujeto pasivo",
	"inversion sujeto pasivo",
	"intracomunitaria",
	"iva incluido",
	"iva incluida",
	"iva incl",
}

// HasVATExemptionIndicators reports whether the document declares a VAT
// exemption or reverse-charge regime, which legitimately leaves the rate
// undetectable.
func HasVATExemptionIndicators(text string) bool {
	return containsAny(strings.ToLower(text), exemptionKeywords)
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
