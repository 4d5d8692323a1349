package analyzer_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/acquire"
	"github.com/facturio/invoice-analyzer/internal/analyzer"
	"github.com/facturio/invoice-analyzer/internal/llm"
)

func TestAnalyzer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Analyzer Suite")
}

const typedInvoiceText = `ACME SUMINISTROS SL
CIF B12345678
Fecha factura: 26/02/2020
RECIBO 15 DIAS FECHA FACTURA
Concepto: material de oficina`

const modelResponse = `{
  "supplier": "Acme Suministros SL",
  "invoice_date": "2020-02-26",
  "payment_terms_days": 15,
  "totals": {"base_amount": 100.0, "vat_rate": 21, "vat_amount": 21.0, "total_amount": 121.0}
}`

func fixedModel(response string) llm.ModelClient {
	return llm.ModelClientFunc(func(context.Context, string) (string, error) {
		return response, nil
	})
}

var _ = Describe("AnalyzeInvoice", func() {
	var (
		a   *analyzer.Analyzer
		req analyzer.Request
	)

	BeforeEach(func() {
		a = analyzer.New(fixedModel(modelResponse), nil)
		req = analyzer.Request{
			Raw: acquire.RawDocumentText{
				Text:         typedInvoiceText,
				Kind:         constants.SourceEmbedded,
				EmbeddedText: typedInvoiceText,
			},
			DocumentType: constants.DocumentExpense,
			CompanyNames: []string{"Mi Empresa SL"},
		}
	})

	When("the model answer is consistent", func() {
		It("returns an ok result sourced from the model", func() {
			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(constants.StatusOK))
			Expect(res.ExtractionSource).To(Equal(constants.SourceLLM))
			Expect(res.ConfidenceScore).To(Equal(0.85))
			Expect(res.BaseAmount).To(HaveValue(BeNumerically("==", 100)))
			Expect(res.VATAmount).To(HaveValue(BeNumerically("==", 21)))
			Expect(res.TotalAmount).To(HaveValue(BeNumerically("==", 121)))
			Expect(res.Validation.IsConsistent).To(HaveValue(BeTrue()))
		})

		It("keeps the model supplier when it passes validity", func() {
			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Supplier).To(HaveValue(Equal("Acme Suministros SL")))
		})

		It("derives the payment date from the terms idiom", func() {
			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.InvoiceDate).To(HaveValue(Equal("2020-02-26")))
			Expect(res.PaymentDates).To(Equal([]string{"2020-03-12"}))
			Expect(res.PaymentDate).To(HaveValue(Equal("2020-03-12")))
		})

		It("is reproducible for identical inputs", func() {
			first, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			second, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})
	})

	When("a printed totals block contradicts the model", func() {
		BeforeEach(func() {
			text := "FACTURA 2020-118\nIMPUESTOS\nBASE IMPONIBLE\n1.171,34\nI.V.A. 21,00% 245,98\nTOTAL 1.417,32 EUR"
			req.Raw = acquire.RawDocumentText{Text: text, Kind: constants.SourceEmbedded, EmbeddedText: text}
			a = analyzer.New(fixedModel(`{"totals": {"base_amount": 971.34, "vat_amount": 245.98, "total_amount": 1217.32}}`), nil)
		})

		It("prefers the regex tax summary", func() {
			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(constants.StatusOK))
			Expect(res.ExtractionSource).To(Equal(constants.SourceRegexTaxSummary))
			Expect(res.ConfidenceScore).To(Equal(0.98))
			Expect(res.BaseAmount).To(HaveValue(BeNumerically("~", 1171.34, 0.001)))
			Expect(res.TotalAmount).To(HaveValue(BeNumerically("~", 1417.32, 0.001)))
		})
	})

	When("the model returns no usable JSON", func() {
		BeforeEach(func() {
			a = analyzer.New(fixedModel("lo siento, no puedo ayudar con eso"), nil)
		})

		It("reports partial without fabricating amounts", func() {
			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(constants.StatusPartial))
			Expect(res.ExtractionSource).To(Equal(constants.SourceFallback))
			Expect(res.BaseAmount).To(BeNil())
			Expect(res.VATRate).To(BeNil())
			Expect(res.TotalAmount).To(BeNil())
		})
	})

	When("an OCR scan is unreadable", func() {
		It("short-circuits without calling the model", func() {
			called := false
			a = analyzer.New(llm.ModelClientFunc(func(context.Context, string) (string, error) {
				called = true
				return "{}", nil
			}), nil)
			req.Raw = acquire.RawDocumentText{
				Text: "@#$ |||| ~~ @#$ ||||",
				Kind: constants.SourceOCRScanned,
			}

			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(called).To(BeFalse())
			Expect(res.Status).To(Equal(constants.StatusLowQualityScan))
			Expect(res.BaseAmount).To(BeNil())
			Expect(res.PaymentDates).To(BeEmpty())
		})
	})

	When("the model call fails", func() {
		It("propagates the error", func() {
			a = analyzer.New(llm.ModelClientFunc(func(context.Context, string) (string, error) {
				return "", errors.New("upstream unavailable")
			}), nil)
			_, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).To(MatchError(ContainSubstring("upstream unavailable")))
		})
	})

	When("the document is an income invoice", func() {
		It("fills the client name and skips supplier resolution", func() {
			a = analyzer.New(fixedModel(`{"client": "Cliente Final SA", "totals": {"base_amount": 100.0, "vat_amount": 21.0, "total_amount": 121.0}}`), nil)
			req.DocumentType = constants.DocumentIncome

			res, err := a.AnalyzeInvoice(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ClientName).To(HaveValue(Equal("Cliente Final SA")))
			Expect(res.Supplier).To(BeNil())
		})
	})
})
