package dates

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDates(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dates Suite")
}

var _ = Describe("Normalize", func() {
	DescribeTable("accepted forms",
		func(in, expected string) {
			Expect(Normalize(in)).To(Equal(expected))
		},
		Entry("already ISO", "2020-02-26", "2020-02-26"),
		Entry("day first with slashes", "26/02/2020", "2020-02-26"),
		Entry("day first with dashes", "26-02-2020", "2020-02-26"),
		Entry("two digit year", "26/02/20", "2020-02-26"),
		Entry("single digit day and month", "5/3/2021", "2021-03-05"),
		Entry("year first", "2021/3/5", "2021-03-05"),
	)

	It("rejects non-dates", func() {
		Expect(Normalize("factura 123")).To(Equal(""))
		Expect(Normalize("")).To(Equal(""))
	})
})

var _ = Describe("FirstInLine", func() {
	It("treats dots as separators", func() {
		Expect(FirstInLine("Fecha: 26.02.2020")).To(Equal("2020-02-26"))
	})

	It("returns empty when the line has no date", func() {
		Expect(FirstInLine("TOTAL 1.417,32 EUR")).To(Equal(""))
	})
})

var _ = Describe("FindInvoiceDate", func() {
	It("reads the issue date from a fecha factura line", func() {
		text := "FACTURA Nº 2020-118\nFecha factura: 26/02/2020\nVencimiento: 12/03/2020"
		Expect(FindInvoiceDate(text)).To(Equal("2020-02-26"))
	})

	It("never picks the due date line", func() {
		text := "Fecha de vencimiento de la factura: 12/03/2020"
		Expect(FindInvoiceDate(text)).To(Equal(""))
	})

	It("reads the value column below a bare FECHA header", func() {
		text := "FACTURA Nº\nTIPO FAC\nFECHA\nCLIENTE Nº\nN.I.F.\n" +
			"26009701\nRI\n03/02/2026\n235044\n" +
			"VENCIMIENTO:\n60 dias fecha factura\n04/04/2026"
		Expect(FindInvoiceDate(text)).To(Equal("2026-02-03"))
	})

	It("ignores dates after the due-date block in columnar layouts", func() {
		text := "FECHA\nVENCIMIENTO:\n04/04/2026"
		Expect(FindInvoiceDate(text)).To(Equal(""))
	})
})

var _ = Describe("FindPaymentDates", func() {
	It("collects explicit due dates from keyword lines", func() {
		text := "Vencimiento: 12/03/2020\nSegundo pago 12/04/2020"
		Expect(FindPaymentDates(text, "")).To(Equal([]string{"2020-03-12", "2020-04-12"}))
	})

	It("applies day-count phrases to the invoice date", func() {
		text := "Forma de pago: 30 días"
		Expect(FindPaymentDates(text, "2020-02-26")).To(Equal([]string{"2020-03-27"}))
	})

	It("deduplicates and sorts ascending", func() {
		text := "Vencimiento 12/04/2020\nFecha de pago: 12/03/2020\nVencimiento 12/04/2020"
		Expect(FindPaymentDates(text, "")).To(Equal([]string{"2020-03-12", "2020-04-12"}))
	})
})

var _ = Describe("PaymentTermsDays", func() {
	It("reads the RECIBO N DIAS FECHA FACTURA idiom", func() {
		Expect(PaymentTermsDays("FORMA DE PAGO: RECIBO 15 DIAS FECHA FACTURA")).To(Equal(15))
	})

	It("accepts the accented spelling", func() {
		Expect(PaymentTermsDays("Recibo 30 días fecha factura")).To(Equal(30))
	})

	It("returns zero when the phrase is absent", func() {
		Expect(PaymentTermsDays("TRANSFERENCIA BANCARIA")).To(Equal(0))
	})
})

var _ = Describe("AddDays", func() {
	It("shifts across month boundaries", func() {
		Expect(AddDays("2020-02-26", 15)).To(Equal("2020-03-12"))
	})

	It("returns empty on malformed input", func() {
		Expect(AddDays("26/02/2020", 15)).To(Equal(""))
	})
})
