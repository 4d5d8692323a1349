package llm_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/llm"
)

func TestLLM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LLM Suite")
}

var _ = Describe("ExtractJSONObject", func() {
	It("parses a bare object", func() {
		obj := llm.ExtractJSONObject(`{"supplier": "Acme SL", "total_amount": 121.0}`)
		Expect(obj).NotTo(BeNil())
		Expect(obj["supplier"]).To(Equal("Acme SL"))
	})

	It("strips markdown fences", func() {
		text := "```json\n{\"total_amount\": 42.5}\n```"
		obj := llm.ExtractJSONObject(text)
		Expect(obj).NotTo(BeNil())
		Expect(obj["total_amount"]).To(BeNumerically("==", 42.5))
	})

	It("finds the object inside surrounding prose", func() {
		text := "Claro, estos son los datos: {\"supplier\": \"Acme\"} espero que sirva"
		obj := llm.ExtractJSONObject(text)
		Expect(obj).NotTo(BeNil())
		Expect(obj["supplier"]).To(Equal("Acme"))
	})

	It("handles braces inside string values", func() {
		text := `{"supplier": "Tienda {centro} SL", "total_amount": 10}`
		obj := llm.ExtractJSONObject(text)
		Expect(obj).NotTo(BeNil())
		Expect(obj["supplier"]).To(Equal("Tienda {centro} SL"))
	})

	It("skips an unbalanced first brace and finds a later object", func() {
		text := `{ not json at all } ... {"total_amount": 5}`
		obj := llm.ExtractJSONObject(text)
		Expect(obj).NotTo(BeNil())
		Expect(obj["total_amount"]).To(BeNumerically("==", 5))
	})

	It("returns nil when no object parses", func() {
		Expect(llm.ExtractJSONObject("no hay datos")).To(BeNil())
		Expect(llm.ExtractJSONObject("")).To(BeNil())
	})
})

var _ = Describe("ParsePayload", func() {
	It("reads the nested totals object", func() {
		p := llm.ParsePayload(map[string]any{
			"supplier":     "Acme SL",
			"invoice_date": "26/02/2020",
			"totals": map[string]any{
				"base_amount":  "1.234,56",
				"vat_rate":     21,
				"vat_amount":   259.26,
				"total_amount": "1493,82",
			},
		})
		Expect(p.Supplier).To(Equal("Acme SL"))
		Expect(p.InvoiceDate).To(Equal("2020-02-26"))
		Expect(p.Base).To(HaveValue(BeNumerically("~", 1234.56, 0.001)))
		Expect(p.VATRate).To(HaveValue(BeNumerically("==", 21)))
		Expect(p.VAT).To(HaveValue(BeNumerically("~", 259.26, 0.001)))
		Expect(p.Total).To(HaveValue(BeNumerically("~", 1493.82, 0.001)))
	})

	It("accepts Spanish synonym keys at the top level", func() {
		p := llm.ParsePayload(map[string]any{
			"proveedor":      "Suministros Perez",
			"fecha_factura":  "2024-01-15",
			"base_imponible": 100.0,
			"tipo_iva":       "21%",
			"importe_iva":    21.0,
			"total_factura":  121.0,
		})
		Expect(p.Supplier).To(Equal("Suministros Perez"))
		Expect(p.InvoiceDate).To(Equal("2024-01-15"))
		Expect(p.Base).To(HaveValue(BeNumerically("==", 100)))
		Expect(p.VATRate).To(HaveValue(BeNumerically("==", 21)))
		Expect(p.Total).To(HaveValue(BeNumerically("==", 121)))
	})

	It("collects and dedupes payment dates from list and scalar keys", func() {
		p := llm.ParsePayload(map[string]any{
			"payment_dates": []any{"15/03/2024", "2024-04-15"},
			"payment_date":  "15/03/2024",
		})
		Expect(p.PaymentDates).To(Equal([]string{"2024-03-15", "2024-04-15"}))
	})

	It("drops placeholder party names", func() {
		p := llm.ParsePayload(map[string]any{"supplier": "null", "client": "N/A"})
		Expect(p.Supplier).To(BeEmpty())
		Expect(p.Client).To(BeEmpty())
	})

	It("keeps payment terms only when plausible", func() {
		p := llm.ParsePayload(map[string]any{"payment_terms_days": 30.0})
		Expect(p.PaymentTermsDays).To(HaveValue(Equal(30)))
		p = llm.ParsePayload(map[string]any{"payment_terms_days": -5.0})
		Expect(p.PaymentTermsDays).To(BeNil())
	})
})

var _ = Describe("BuildPrompt", func() {
	It("asks for the supplier on expense invoices", func() {
		prompt := llm.BuildPrompt(constants.DocumentExpense, "FACTURA 123")
		Expect(prompt).To(ContainSubstring(`"supplier"`))
		Expect(prompt).To(ContainSubstring("FACTURA 123"))
	})

	It("asks for the client on income invoices", func() {
		prompt := llm.BuildPrompt(constants.DocumentIncome, "FACTURA 123")
		Expect(prompt).To(ContainSubstring(`"client"`))
	})
})

var _ = Describe("ValidateResponse", func() {
	It("accepts a contract-shaped object", func() {
		obj := map[string]any{
			"supplier":     "Acme SL",
			"invoice_date": "2024-01-15",
			"totals":       map[string]any{"base_amount": 100.0},
		}
		Expect(llm.ValidateResponse(obj)).To(Succeed())
	})

	It("flags a drifted shape without panicking", func() {
		obj := map[string]any{"payment_dates": "2024-01-15"}
		Expect(llm.ValidateResponse(obj)).To(HaveOccurred())
	})
})
