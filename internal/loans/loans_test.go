package loans_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/facturio/invoice-analyzer/internal/llm"
	"github.com/facturio/invoice-analyzer/internal/loans"
)

func TestLoans(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loans Suite")
}

var planText = strings.Repeat("CUOTA PRESTAMO HIPOTECARIO BANCO EJEMPLO\n", 3)

func extractor(response string) *loans.Extractor {
	return loans.NewExtractor(llm.ModelClientFunc(func(context.Context, string) (string, error) {
		return response, nil
	}), nil)
}

var _ = Describe("ExtractSchedule", func() {
	It("skips text too short to hold a schedule", func() {
		called := false
		e := loans.NewExtractor(llm.ModelClientFunc(func(context.Context, string) (string, error) {
			called = true
			return "{}", nil
		}), nil)
		out, err := e.ExtractSchedule(context.Background(), "corto")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
		Expect(called).To(BeFalse())
	})

	It("normalizes complete installments", func() {
		e := extractor(`{"installments": [
			{"payment_date": "15/01/2024", "total_amount": "512,30", "interest_amount": 112.30, "principal_amount": 400.0, "banco": "Banco Ejemplo"}
		]}`)
		out, err := e.ExtractSchedule(context.Background(), planText)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(out[0].PaymentDate).To(Equal("2024-01-15"))
		Expect(out[0].TotalAmount).To(BeNumerically("~", 512.30, 0.001))
		Expect(out[0].InterestAmount).To(BeNumerically("~", 112.30, 0.001))
		Expect(out[0].PrincipalAmount).To(BeNumerically("~", 400.0, 0.001))
		Expect(out[0].BankName).To(HaveValue(Equal("Banco Ejemplo")))
	})

	It("back-fills the missing member of the triple", func() {
		e := extractor(`{"installments": [
			{"payment_date": "2024-02-15", "interest_amount": 100.0, "principal_amount": 350.0},
			{"payment_date": "2024-03-15", "total_amount": 450.0, "interest_amount": 95.0}
		]}`)
		out, err := e.ExtractSchedule(context.Background(), planText)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(2))
		Expect(out[0].TotalAmount).To(BeNumerically("==", 450))
		Expect(out[1].PrincipalAmount).To(BeNumerically("==", 355))
	})

	It("drops rows without a date or a resolvable total", func() {
		e := extractor(`{"installments": [
			{"total_amount": 450.0},
			{"payment_date": "2024-03-15"},
			{"payment_date": "2024-04-15", "total_amount": 450.0}
		]}`)
		out, err := e.ExtractSchedule(context.Background(), planText)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(out[0].PaymentDate).To(Equal("2024-04-15"))
	})

	It("tolerates a response without JSON", func() {
		e := extractor("no puedo leer este plan")
		out, err := e.ExtractSchedule(context.Background(), planText)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})
})
