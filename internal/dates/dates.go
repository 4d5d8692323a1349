// Package dates normalizes invoice dates to ISO form and locates
// invoice/payment dates in raw document text.
package dates

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var (
	reISO    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDMY    = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
	reYMD    = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	reAnyDMY = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	reAnyYMD = regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	reDays   = regexp.MustCompile(`(\d{1,3})\s*d[ií]as`)

	// Fixed wording printed by Spanish billing software for draft terms.
	rePaymentTerms = regexp.MustCompile(`(?i)recibo\s+(\d{1,3})\s+d[ií]as\s+fecha\s+factura`)
)

// Normalize converts a date string to YYYY-MM-DD, accepting ISO input,
// day-first dd/mm/yy(yy) and year-first yyyy/mm/dd with "/" or "-"
// separators. Two-digit years are assumed to be 20xx. Returns "" when
// the value is not a recognizable date.
func Normalize(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if reISO.MatchString(v) {
		return v
	}
	if m := reDMY.FindStringSubmatch(v); m != nil {
		day, month, year := m[1], m[2], m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return formatISO(year, month, day)
	}
	if m := reYMD.FindStringSubmatch(v); m != nil {
		return formatISO(m[1], m[2], m[3])
	}
	return ""
}

func formatISO(year, month, day string) string {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// FirstInLine returns the first date found in a line, dots treated as
// separators (OCR frequently reads "26.02.2020").
func FirstInLine(line string) string {
	normalized := strings.ReplaceAll(line, ".", "/")
	if m := reAnyDMY.FindString(normalized); m != "" {
		return Normalize(m)
	}
	if m := reAnyYMD.FindString(normalized); m != "" {
		return Normalize(m)
	}
	return ""
}

// InvoiceDateKeywords marks lines that carry the issue date.
var invoiceKeywords = []string{"fecha factura", "fecha de factura", "fecha de emisión", "fecha de emision", "invoice date"}

// FindInvoiceDate scans for the issue date. Same-line hits win: a line
// mentioning both "fecha" and "factura" (or an explicit keyword) that
// also carries the date. Columnar OCR separates header labels from
// their values, so a second pass takes the first date appearing below a
// date label, stopping at the due-date block so a vencimiento date is
// never picked.
func FindInvoiceDate(text string) string {
	lines := splitLines(text)
	for _, line := range lines {
		lowered := strings.ToLower(line)
		if strings.Contains(lowered, "vencimiento") {
			continue
		}
		if !isDateLabel(lowered) {
			continue
		}
		if d := FirstInLine(line); d != "" {
			return d
		}
	}

	labelSeen := false
	for _, line := range lines {
		lowered := strings.ToLower(line)
		if strings.Contains(lowered, "vencimiento") {
			break
		}
		if isDateLabel(lowered) {
			labelSeen = true
			continue
		}
		if !labelSeen {
			continue
		}
		if d := FirstInLine(line); d != "" {
			return d
		}
	}
	return ""
}

// isDateLabel also accepts a line that is nothing but "FECHA", the bare
// column header of tabular layouts.
func isDateLabel(lowered string) bool {
	if strings.Contains(lowered, "fecha") && strings.Contains(lowered, "factura") {
		return true
	}
	for _, kw := range invoiceKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return strings.Trim(lowered, " :.") == "fecha"
}

var paymentKeywords = []string{
	"fecha de vencimiento",
	"vencimiento",
	"vence el",
	"fecha de pago",
	"fecha pago",
	"pago",
	"pagos",
	"cuota",
	"cuotas",
}

// FindPaymentDates scans for due dates: explicit dates on lines with
// payment keywords, plus "<N> días" day counts applied to the invoice
// date. The result is deduplicated and sorted ascending.
func FindPaymentDates(text, invoiceDateISO string) []string {
	var found []string
	var base time.Time
	haveBase := false
	if invoiceDateISO != "" {
		if t, err := time.Parse(isoLayout, invoiceDateISO); err == nil {
			base = t
			haveBase = true
		}
	}

	for _, line := range splitLines(text) {
		lowered := strings.ToLower(line)
		if containsAny(lowered, paymentKeywords) {
			normalized := strings.ReplaceAll(line, ".", "/")
			for _, m := range reAnyDMY.FindAllString(normalized, -1) {
				if d := Normalize(m); d != "" {
					found = append(found, d)
				}
			}
			for _, m := range reAnyYMD.FindAllString(normalized, -1) {
				if d := Normalize(m); d != "" {
					found = append(found, d)
				}
			}
		}
		if haveBase {
			for _, m := range reDays.FindAllStringSubmatch(lowered, -1) {
				days, err := strconv.Atoi(m[1])
				if err != nil {
					continue
				}
				found = append(found, base.AddDate(0, 0, days).Format(isoLayout))
			}
		}
	}
	return Dedupe(found)
}

// PaymentTermsDays extracts N from the "RECIBO N DIAS FECHA FACTURA"
// idiom, or 0 when the phrase is absent.
func PaymentTermsDays(text string) int {
	m := rePaymentTerms.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// AddDays shifts an ISO date by a day count; returns "" on bad input.
func AddDays(iso string, days int) string {
	t, err := time.Parse(isoLayout, iso)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, days).Format(isoLayout)
}

// Dedupe removes duplicates and empty entries and sorts ascending.
// ISO dates sort correctly as strings.
func Dedupe(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
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
