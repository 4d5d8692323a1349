package llm

import "strings"

// Canonical field names used by the payload mapper.
const (
	FieldSupplier         = "supplier"
	FieldClient           = "client"
	FieldInvoiceDate      = "invoice_date"
	FieldPaymentDates     = "payment_dates"
	FieldPaymentDate      = "payment_date"
	FieldPaymentTermsDays = "payment_terms_days"
	FieldBaseAmount       = "base_amount"
	FieldVATRate          = "vat_rate"
	FieldVATAmount        = "vat_amount"
	FieldTotalAmount      = "total_amount"
	FieldTotals           = "totals"
	FieldVATBreakdown     = "vat_breakdown"
)

// fieldKeys maps each canonical field to the key spellings models
// actually produce (Spanish prompts pull Spanish keys out of some
// models no matter what the contract says).
var fieldKeys = map[string][]string{
	FieldSupplier:         {"supplier", "proveedor", "provider_name", "provider", "emisor"},
	FieldClient:           {"client", "cliente", "customer", "client_name", "receptor"},
	FieldInvoiceDate:      {"invoice_date", "fecha_factura", "fecha"},
	FieldPaymentDates:     {"payment_dates", "fechas_pago", "fechas_vencimiento", "vencimientos"},
	FieldPaymentDate:      {"payment_date", "fecha_pago", "fecha_vencimiento", "vencimiento"},
	FieldPaymentTermsDays: {"payment_terms_days", "plazo_pago_dias", "dias_pago"},
	FieldBaseAmount:       {"base_amount", "base_imponible", "base"},
	FieldVATRate:          {"vat_rate", "iva_rate", "tipo_iva", "iva"},
	FieldVATAmount:        {"vat_amount", "importe_iva", "iva_importe", "vat"},
	FieldTotalAmount:      {"total_amount", "total_factura", "total"},
	FieldTotals:           {"totals", "importes"},
	FieldVATBreakdown:     {"vat_breakdown", "iva_breakdown", "vat_lines", "iva_lines", "desglose_iva"},
}

// FieldValue returns the first present, non-empty value for a canonical
// field, consulting the alternate-key table.
func FieldValue(m map[string]any, canonical string) any {
	for _, key := range fieldKeys[canonical] {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}
