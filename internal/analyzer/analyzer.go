// Package analyzer orchestrates one invoice analysis: acquisition
// quality gate, model call, lenient parse, amount reconciliation,
// supplier resolution and payment date resolution.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/acquire"
	"github.com/facturio/invoice-analyzer/internal/dates"
	"github.com/facturio/invoice-analyzer/internal/llm"
	"github.com/facturio/invoice-analyzer/internal/reconcile"
	"github.com/facturio/invoice-analyzer/internal/supplier"
	"github.com/facturio/invoice-analyzer/internal/textscan"
)

const excerptLimit = 500

// Request is one document to analyze.
type Request struct {
	Raw            acquire.RawDocumentText
	DocumentType   constants.DocumentType
	CompanyNames   []string // the caller's own legal names, never a supplier
	KnownSuppliers []string
}

// Analyzer wires the model client to the deterministic extraction
// passes. Given identical raw text and an identical model response the
// output is reproducible.
type Analyzer struct {
	model  llm.ModelClient
	engine *reconcile.Engine
	logger *slog.Logger
}

func New(model llm.ModelClient, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		model:  model,
		engine: reconcile.NewEngine(logger),
		logger: logger,
	}
}

// AnalyzeInvoice runs the full pipeline for one document.
func (a *Analyzer) AnalyzeInvoice(ctx context.Context, req Request) (Result, error) {
	text := req.Raw.Text

	// Cost guard: an unreadable scan with no amount hints would only
	// make the model hallucinate. Skip the call entirely.
	if req.Raw.Kind.UsedOCR() && textscan.IsLowQualityOCR(text) && !textscan.HasAmountHints(text) {
		a.logger.Warn("analyze.low_quality_scan", "source_kind", req.Raw.Kind)
		return lowQualityResult(), nil
	}

	prompt := llm.BuildPrompt(req.DocumentType, text)
	response, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("model completion: %w", err)
	}

	obj := llm.ExtractJSONObject(response)
	if obj == nil {
		a.logger.Warn("analyze.no_json_in_response", "response_len", len(response))
		obj = map[string]any{}
	} else if err := llm.ValidateResponse(obj); err != nil {
		a.logger.Warn("analyze.contract_drift", "error", err)
	}
	payload := llm.ParsePayload(obj)

	taxSummary := textscan.ExtractTaxSummary(text)
	breakdown := reconcile.NormalizeBreakdown(payload.Breakdown)
	if len(breakdown) == 0 && !taxSummary.Found {
		// Text-recovered lines are a last resort; a located totals block
		// is higher fidelity than rows re-guessed from the same text.
		breakdown = reconcile.ScanBreakdown(text)
	}

	out := a.engine.Reconcile(reconcile.Input{
		Model: reconcile.Candidate{
			Source:  constants.SourceLLM,
			Base:    payload.Base,
			VATRate: payload.VATRate,
			VAT:     payload.VAT,
			Total:   payload.Total,
		},
		TaxSummary: taxSummary,
		Keyword:    textscan.ExtractKeywordAmounts(text),
		Breakdown:  breakdown,
	})

	invoiceDate := payload.InvoiceDate
	if invoiceDate == "" {
		invoiceDate = dates.FindInvoiceDate(text)
	}
	paymentDates := a.resolvePaymentDates(payload, text, invoiceDate)

	if out.Breakdown == nil {
		out.Breakdown = []reconcile.BreakdownLine{}
	}

	result := Result{
		Status:           out.Status,
		InvoiceDate:      strPtr(invoiceDate),
		PaymentDates:     paymentDates,
		BaseAmount:       out.Base,
		VATRate:          out.VATRate,
		VATAmount:        out.VAT,
		TotalAmount:      out.Total,
		VATBreakdown:     out.Breakdown,
		ExtractionSource: out.Source,
		ConfidenceScore:  out.Confidence,
		Validation:       out.Validation,
		ModelTextExcerpt: excerpt(response),
	}
	if len(paymentDates) > 0 {
		result.PaymentDate = strPtr(paymentDates[0])
	}

	if req.DocumentType == constants.DocumentIncome {
		result.ClientName = strPtr(payload.Client)
	} else {
		result.Supplier = strPtr(a.resolveSupplier(req, payload.Supplier))
	}

	a.logger.Info("analyze.done",
		"status", result.Status,
		"source", result.ExtractionSource,
		"confidence", result.ConfidenceScore,
		"invoice_date", invoiceDate,
		"payment_dates", len(paymentDates),
	)
	return result, nil
}

// resolveSupplier validates the model's answer first and falls back to
// the text resolver. For typed PDFs the embedded layer is the better
// search text even when OCR produced the analysis text.
func (a *Analyzer) resolveSupplier(req Request, modelSupplier string) string {
	searchText := req.Raw.Text
	if req.Raw.Kind == constants.SourceEmbedded && req.Raw.EmbeddedText != "" {
		searchText = req.Raw.EmbeddedText
	}
	resolver := supplier.NewResolver(req.CompanyNames, req.KnownSuppliers, a.logger)
	if modelSupplier != "" && resolver.ValidateCandidate(modelSupplier, searchText) {
		return modelSupplier
	}
	return resolver.Resolve(searchText)
}

// resolvePaymentDates applies the priority order: explicit model dates,
// then invoice date plus a payment-terms day count, then the raw-text
// keyword scan. The result is deduplicated and sorted ascending.
func (a *Analyzer) resolvePaymentDates(payload llm.Payload, text, invoiceDate string) []string {
	collected := append([]string(nil), payload.PaymentDates...)

	if len(collected) == 0 && invoiceDate != "" {
		days := 0
		if payload.PaymentTermsDays != nil {
			days = *payload.PaymentTermsDays
		} else {
			days = dates.PaymentTermsDays(text)
		}
		if days > 0 {
			if due := dates.AddDays(invoiceDate, days); due != "" {
				collected = append(collected, due)
			}
		}
	}

	if len(collected) == 0 {
		collected = dates.FindPaymentDates(text, invoiceDate)
	}

	deduped := dates.Dedupe(collected)
	if deduped == nil {
		return []string{}
	}
	return deduped
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptLimit {
		return s
	}
	return string(runes[:excerptLimit])
}
