package llm

import (
	"strings"

	"github.com/facturio/invoice-analyzer/internal/amount"
	"github.com/facturio/invoice-analyzer/internal/dates"
)

// Payload is the typed view over a model response object. Amounts are
// normalized to canonical floats, dates to ISO yyyy-mm-dd. Breakdown is
// kept raw so downstream normalization can apply its own rules.
type Payload struct {
	Supplier         string
	Client           string
	InvoiceDate      string
	PaymentDates     []string
	PaymentTermsDays *int
	Base             *float64
	VATRate          *float64
	VAT              *float64
	Total            *float64
	Breakdown        any
}

// ParsePayload maps an extracted response object onto a Payload. Every
// field is optional; unrecognized keys are ignored. Amount fields are
// read from the nested totals object first and flat keys second.
func ParsePayload(obj map[string]any) Payload {
	var p Payload

	p.Supplier = cleanName(FieldValue(obj, FieldSupplier))
	p.Client = cleanName(FieldValue(obj, FieldClient))

	if v := FieldValue(obj, FieldInvoiceDate); v != nil {
		if s, ok := v.(string); ok {
			p.InvoiceDate = dates.Normalize(s)
		}
	}

	p.PaymentDates = parseDateList(FieldValue(obj, FieldPaymentDates))
	if v := FieldValue(obj, FieldPaymentDate); v != nil {
		if s, ok := v.(string); ok {
			if iso := dates.Normalize(s); iso != "" {
				p.PaymentDates = append(p.PaymentDates, iso)
			}
		}
	}
	p.PaymentDates = dates.Dedupe(p.PaymentDates)

	if v := FieldValue(obj, FieldPaymentTermsDays); v != nil {
		if f := amount.Normalize(v); f != nil && *f > 0 && *f < 1000 {
			days := int(*f)
			p.PaymentTermsDays = &days
		}
	}

	amounts := obj
	if v := FieldValue(obj, FieldTotals); v != nil {
		if nested, ok := v.(map[string]any); ok {
			amounts = nested
		}
	}
	p.Base = amount.Normalize(FieldValue(amounts, FieldBaseAmount))
	p.VAT = amount.Normalize(FieldValue(amounts, FieldVATAmount))
	p.Total = amount.Normalize(FieldValue(amounts, FieldTotalAmount))
	p.VATRate = amount.NormalizeRate(FieldValue(amounts, FieldVATRate))
	// Flat amount keys fill gaps the nested object leaves.
	if p.Base == nil {
		p.Base = amount.Normalize(FieldValue(obj, FieldBaseAmount))
	}
	if p.VAT == nil {
		p.VAT = amount.Normalize(FieldValue(obj, FieldVATAmount))
	}
	if p.Total == nil {
		p.Total = amount.Normalize(FieldValue(obj, FieldTotalAmount))
	}
	if p.VATRate == nil {
		p.VATRate = amount.NormalizeRate(FieldValue(obj, FieldVATRate))
	}

	p.Breakdown = FieldValue(obj, FieldVATBreakdown)
	return p
}

func parseDateList(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if iso := dates.Normalize(s); iso != "" {
					out = append(out, iso)
				}
			}
		}
	case string:
		for _, part := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' }) {
			if iso := dates.Normalize(strings.TrimSpace(part)); iso != "" {
				out = append(out, iso)
			}
		}
	}
	return out
}

func cleanName(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, placeholder := range []string{"null", "none", "n/a", "desconocido", "unknown", "-"} {
		if lower == placeholder {
			return ""
		}
	}
	return s
}
