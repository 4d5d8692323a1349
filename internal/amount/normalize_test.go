package amount

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAmount(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Amount Suite")
}

var _ = Describe("ParseString", func() {
	DescribeTable("locale-ambiguous notations",
		func(in string, expected float64) {
			got := ParseString(in)
			Expect(got).NotTo(BeNil())
			Expect(*got).To(BeNumerically("~", expected, 1e-9))
		},
		Entry("thousands dot with decimal comma", "1.234,56", 1234.56),
		Entry("decimal comma only", "1234,56", 1234.56),
		Entry("decimal dot only", "1234.56", 1234.56),
		Entry("grouping dots without decimals", "1.234", 1234.0),
		Entry("multiple grouping dots", "1.234.567", 1234567.0),
		Entry("grouping dots plus final decimal group", "1.234.567.89", 123456789.0/100),
		Entry("currency suffix", "1.417,32 EUR", 1417.32),
		Entry("euro sign", "99,00 €", 99.0),
		Entry("plain integer", "250", 250.0),
		Entry("signed value", "-12,50", -12.50),
		Entry("internal whitespace", "1 234,56", 1234.56),
	)

	When("the string has no digits", func() {
		It("returns nil", func() {
			Expect(ParseString("EUR")).To(BeNil())
			Expect(ParseString("  ")).To(BeNil())
			Expect(ParseString("n/a")).To(BeNil())
		})
	})

	When("OCR noise surrounds the number", func() {
		It("discards stray characters before converting", func() {
			got := ParseString("~1.171,34*")
			Expect(got).NotTo(BeNil())
			Expect(*got).To(BeNumerically("~", 1171.34, 1e-9))
		})
	})
})

var _ = Describe("Normalize", func() {
	It("passes JSON numbers through", func() {
		got := Normalize(float64(121.0))
		Expect(got).NotTo(BeNil())
		Expect(*got).To(Equal(121.0))
	})

	It("parses JSON strings", func() {
		got := Normalize("1.234,56")
		Expect(got).NotTo(BeNil())
		Expect(*got).To(BeNumerically("~", 1234.56, 1e-9))
	})

	It("maps nil to nil", func() {
		Expect(Normalize(nil)).To(BeNil())
	})
})

var _ = Describe("NormalizeRate", func() {
	It("strips percent signs and decimal commas", func() {
		got := NormalizeRate("21,00 %")
		Expect(got).NotTo(BeNil())
		Expect(*got).To(Equal(21.0))
	})

	It("rounds near-integers to the integer", func() {
		got := NormalizeRate(20.9999)
		Expect(got).NotTo(BeNil())
		Expect(*got).To(Equal(21.0))
	})

	It("rejects negatives", func() {
		Expect(NormalizeRate(-4.0)).To(BeNil())
	})

	It("keeps genuine fractional rates at two decimals", func() {
		got := NormalizeRate(5.175)
		Expect(got).NotTo(BeNil())
		Expect(*got).To(BeNumerically("~", 5.18, 1e-9))
	})
})

var _ = Describe("round-trip", func() {
	DescribeTable("parse(format(x)) reproduces x",
		func(x float64) {
			got := ParseString(Format2(x))
			Expect(got).NotTo(BeNil())
			Expect(*got).To(BeNumerically("~", Round2(x), 1e-9))
		},
		Entry("small", 0.05),
		Entry("typical", 1234.56),
		Entry("large", 1234567.89),
		Entry("negative", -421.07),
	)

	It("survives reformatting into Spanish notation", func() {
		// "1.234,56" and "1234.56" denote the same value.
		a := ParseString("1.234,56")
		b := ParseString("1234.56")
		Expect(a).NotTo(BeNil())
		Expect(b).NotTo(BeNil())
		Expect(*a).To(BeNumerically("~", *b, 1e-9))
	})
})
