package analyzer

import (
	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/reconcile"
)

// Result is the final extraction record returned to the caller.
type Result struct {
	Status           constants.AnalysisStatus   `json:"status"`
	Supplier         *string                    `json:"supplier"`
	ClientName       *string                    `json:"client_name"`
	InvoiceDate      *string                    `json:"invoice_date"`
	PaymentDates     []string                   `json:"payment_dates"`
	PaymentDate      *string                    `json:"payment_date"`
	BaseAmount       *float64                   `json:"base_amount"`
	VATRate          *float64                   `json:"vat_rate"`
	VATAmount        *float64                   `json:"vat_amount"`
	TotalAmount      *float64                   `json:"total_amount"`
	VATBreakdown     []reconcile.BreakdownLine  `json:"vat_breakdown"`
	ExtractionSource constants.ExtractionSource `json:"extraction_source"`
	ConfidenceScore  float64                    `json:"confidence_score"`
	Validation       reconcile.Validation       `json:"validation"`
	ModelTextExcerpt string                     `json:"model_text_excerpt"`
}

// lowQualityResult is the short-circuit record for unreadable scans.
func lowQualityResult() Result {
	return Result{
		Status:           constants.StatusLowQualityScan,
		PaymentDates:     []string{},
		VATBreakdown:     []reconcile.BreakdownLine{},
		ExtractionSource: constants.SourceFallback,
		ConfidenceScore:  constants.ConfidenceFor(constants.SourceFallback),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
