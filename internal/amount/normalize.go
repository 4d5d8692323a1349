// Package amount turns locale-ambiguous monetary strings into floats.
//
// Invoice text mixes Spanish formatting ("1.234,56"), plain decimals
// ("1234.56"), currency suffixes and OCR noise; the model response may
// carry numbers as JSON numbers or as strings in either notation.
package amount

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reCurrencyToken = regexp.MustCompile(`(?i)eur(os?)?|€`)
	reStray         = regexp.MustCompile(`[^0-9.]`)
)

// Normalize accepts whatever a JSON decode produced for a monetary field
// (float64, int, string, nil) and returns the parsed value, or nil when
// the value carries no usable number.
func Normalize(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f := v
		return &f
	case int:
		f := float64(v)
		return &f
	case string:
		return ParseString(v)
	default:
		return ParseString(fmt.Sprintf("%v", value))
	}
}

// ParseString parses a monetary string with ambiguous separators.
//
// Disambiguation rules:
//   - "1.234,56"          dot is grouping, comma is decimal
//   - "1234,56"           lone comma with two trailing digits is decimal
//   - "1.234" / "1234.56" only dots: a final 2-digit group is decimal,
//     anything else is grouping
func ParseString(raw string) *float64 {
	s := reCurrencyToken.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas >= 1 && dots >= 1:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case commas >= 1:
		s = strings.ReplaceAll(s, ",", ".")
	case dots >= 1:
		parts := strings.Split(s, ".")
		if len(parts[len(parts)-1]) == 2 {
			s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	// Drop whatever OCR garbage survived around the digits.
	s = reStray.ReplaceAllString(s, "")
	if s == "" || s == "." || s == "-" {
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if negative {
		f = -f
	}
	return &f
}

// NormalizeRate parses a VAT percentage ("21", "21,00 %", 21.0) and
// rounds near-integers to the integer. Negative rates are rejected.
func NormalizeRate(value any) *float64 {
	var numeric float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		numeric = v
	case int:
		numeric = float64(v)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v, "%", ""))
		if cleaned == "" {
			return nil
		}
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		numeric = f
	default:
		return nil
	}
	if numeric < 0 {
		return nil
	}
	if rounded := math.Round(numeric); math.Abs(numeric-rounded) < 0.001 {
		numeric = rounded
	} else {
		numeric = math.Round(numeric*100) / 100
	}
	return &numeric
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round2Ptr rounds to cents, passing nil through.
func Round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

// Format2 renders a value the way results serialize it (two decimals,
// dot separator). ParseString(Format2(x)) == x for cent-precise values.
func Format2(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}

// Ptr is a convenience for building optional amounts.
func Ptr(v float64) *float64 { return &v }
