// Package loans extracts amortization schedules from loan plan text via
// the model collaborator.
package loans

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/facturio/invoice-analyzer/internal/amount"
	"github.com/facturio/invoice-analyzer/internal/dates"
	"github.com/facturio/invoice-analyzer/internal/llm"
)

// minScheduleTextLen filters out inputs too short to hold a schedule.
const minScheduleTextLen = 50

// Installment is one row of an amortization schedule. Total always
// equals interest plus principal; missing members are back-filled.
type Installment struct {
	PaymentDate     string  `json:"payment_date"`
	BankName        *string `json:"bank_name"`
	TotalAmount     float64 `json:"total_amount"`
	InterestAmount  float64 `json:"interest_amount"`
	PrincipalAmount float64 `json:"principal_amount"`
}

// Extractor asks the model for the schedule and normalizes the answer.
type Extractor struct {
	model  llm.ModelClient
	logger *slog.Logger
}

func NewExtractor(model llm.ModelClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{model: model, logger: logger}
}

const schedulePrompt = `Analiza el siguiente texto de un plan de amortizacion de prestamo.
Devuelve SOLO JSON valido con la clave installments, que es una lista de cuotas.
Cada cuota debe incluir: payment_date (YYYY-MM-DD), total_amount, interest_amount, principal_amount.
Usa null si un campo no se puede inferir con seguridad.
No incluyas texto adicional fuera del JSON.

TEXTO_PLAN:
`

// ExtractSchedule returns the normalized installments, or an empty
// slice when the text is too short or the model found nothing.
func (e *Extractor) ExtractSchedule(ctx context.Context, text string) ([]Installment, error) {
	if len(strings.TrimSpace(text)) < minScheduleTextLen {
		return nil, nil
	}

	response, err := e.model.Complete(ctx, schedulePrompt+text)
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}

	obj := llm.ExtractJSONObject(response)
	if obj == nil {
		e.logger.Warn("loans.no_json_in_response", "response_len", len(response))
		return nil, nil
	}

	items, _ := firstList(obj, "installments", "cuotas")
	installments := make([]Installment, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if inst, ok := normalizeInstallment(entry); ok {
			installments = append(installments, inst)
		}
	}

	e.logger.Info("loans.schedule_extracted", "installments", len(installments))
	return installments, nil
}

func normalizeInstallment(entry map[string]any) (Installment, bool) {
	paymentDate := ""
	if s, ok := firstString(entry, "payment_date", "fecha_pago"); ok {
		paymentDate = dates.Normalize(s)
	}
	total := amount.Normalize(firstKey(entry, "total_amount", "importe_total"))
	interest := amount.Normalize(firstKey(entry, "interest_amount", "interes"))
	principal := amount.Normalize(firstKey(entry, "principal_amount", "amortizacion"))

	// Any two of the three determine the third.
	if total == nil && principal != nil && interest != nil {
		total = amount.Ptr(*principal + *interest)
	}
	if principal == nil && total != nil && interest != nil {
		principal = amount.Ptr(*total - *interest)
	}
	if interest == nil && total != nil && principal != nil {
		interest = amount.Ptr(*total - *principal)
	}

	if paymentDate == "" || total == nil {
		return Installment{}, false
	}

	inst := Installment{
		PaymentDate: paymentDate,
		TotalAmount: amount.Round2(*total),
	}
	if interest != nil {
		inst.InterestAmount = amount.Round2(*interest)
	}
	if principal != nil {
		inst.PrincipalAmount = amount.Round2(*principal)
	}
	if bank, ok := firstString(entry, "bank_name", "banco", "entidad", "bank"); ok {
		if trimmed := strings.TrimSpace(bank); trimmed != "" {
			inst.BankName = &trimmed
		}
	}
	return inst, true
}

func firstList(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func firstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
