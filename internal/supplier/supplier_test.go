package supplier_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/facturio/invoice-analyzer/internal/supplier"
)

func TestSupplier(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Supplier Suite")
}

var _ = Describe("identity helpers", func() {
	DescribeTable("NormalizeEntityName",
		func(in, expected string) {
			Expect(supplier.NormalizeEntityName(in)).To(Equal(expected))
		},
		Entry("drops punctuation and case", "Acme, S.L.", "acmesl"),
		Entry("drops spacing", "ACME  S.L.", "acmesl"),
		Entry("empty", "   ", ""),
	)

	DescribeTable("LooksLikePerson",
		func(name string, expected bool) {
			Expect(supplier.LooksLikePerson(name)).To(Equal(expected))
		},
		Entry("two-token name", "Juan Garcia", true),
		Entry("three-token name", "Juan Garcia Perez", true),
		Entry("company with legal form", "Garcia Hermanos SL", false),
		Entry("single token", "Acme", false),
		Entry("four tokens", "Juan Garcia Perez Marin", false),
		Entry("empty", "", false),
	)

	DescribeTable("HasLegalForm",
		func(name string, expected bool) {
			Expect(supplier.HasLegalForm(name)).To(Equal(expected))
		},
		Entry("dotted form", "Acme S.L.", true),
		Entry("spelled out SLU", "Acme S.L.U.", true),
		Entry("foreign form", "Acme GmbH", true),
		Entry("no form", "Juan Garcia", false),
	)

	It("flags courier vocabulary", func() {
		Expect(supplier.ContainsForbiddenKeyword("Transporte Rapido SL")).To(BeTrue())
		Expect(supplier.ContainsForbiddenKeyword("Acme SL")).To(BeFalse())
	})

	DescribeTable("HasTaxID",
		func(line string, expected bool) {
			Expect(supplier.HasTaxID(line)).To(Equal(expected))
		},
		Entry("CIF", "CIF B12345678", true),
		Entry("CIF with separators", "B-1234567-8", true),
		Entry("NIF", "12345678Z", true),
		Entry("plain text", "Calle Mayor 5", false),
	)

	It("recognizes Spanish IBANs", func() {
		Expect(supplier.HasIBAN("ES9121000418450200051332")).To(BeTrue())
		Expect(supplier.HasIBAN("sin cuenta")).To(BeFalse())
	})
})

var _ = Describe("Resolver", func() {
	var (
		companyNames   []string
		knownSuppliers []string
	)

	BeforeEach(func() {
		companyNames = []string{"Mi Empresa, S.L."}
		knownSuppliers = nil
	})

	resolve := func(text string) string {
		return supplier.NewResolver(companyNames, knownSuppliers, nil).Resolve(text)
	}

	When("the text carries a delegation phrase", func() {
		It("returns the delegated name without needing a tax id", func() {
			text := "Cobrado en nombre de Acme Servicios SL\nConcepto: mantenimiento"
			Expect(resolve(text)).To(Equal("Acme Servicios SL"))
		})

		It("rejects a delegated natural person", func() {
			text := "Cobrado en nombre de Juan Garcia\nConcepto: mantenimiento"
			Expect(resolve(text)).To(BeEmpty())
		})
	})

	When("a supplier keyword leads a line", func() {
		It("takes the same-line remainder when a tax id is nearby", func() {
			text := "Emisor: Distribuciones Norte SL\nCIF B12345678\nCalle Mayor 5"
			Expect(resolve(text)).To(Equal("Distribuciones Norte SL"))
		})

		It("falls through to the next lines", func() {
			text := "Expedido por\nDistribuciones Norte SL\nCIF B12345678"
			Expect(resolve(text)).To(Equal("Distribuciones Norte SL"))
		})

		It("rejects the candidate when no tax id is within reach", func() {
			text := "Emisor: Distribuciones Norte SL\nCalle Mayor 5\nConcepto varios"
			Expect(resolve(text)).To(BeEmpty())
		})
	})

	When("only secondary anchors are present", func() {
		It("reads the name after the anchor colon", func() {
			text := "Datos bancarios: Industrias Ebro SA\nES9121000418450200051332"
			Expect(resolve(text)).To(Equal("Industrias Ebro SA"))
		})

		It("refuses an anchored name carrying an operational keyword", func() {
			text := "Datos bancarios: Comercial Ebro SA\nES9121000418450200051332"
			Expect(resolve(text)).To(BeEmpty())
		})
	})

	When("a known supplier appears in the text", func() {
		It("matches it ignoring case and punctuation", func() {
			knownSuppliers = []string{"Suministros Lopez SL"}
			text := "SUMINISTROS LOPEZ, S.L.\nES9121000418450200051332\nAlbaranes del mes"
			Expect(resolve(text)).To(Equal("Suministros Lopez SL"))
		})
	})

	When("falling back to the scored search", func() {
		It("prefers a header line with a legal form and nearby tax id", func() {
			text := "Distribuciones Norte SL\nCalle Mayor 5\nB12345678\nSuministro de material"
			Expect(resolve(text)).To(Equal("Distribuciones Norte SL"))
		})

		It("never resolves to the caller's own company", func() {
			text := "ACME S.L.\nB98765432\nConcepto servicios"
			companyNames = []string{"Acme, S.L."}
			Expect(resolve(text)).To(BeEmpty())
		})

		It("skips operational lines without a legal form", func() {
			text := "Shipping express\nCalle Mayor 5\nConcepto varios"
			Expect(resolve(text)).To(BeEmpty())
		})
	})

	It("returns empty on empty text", func() {
		Expect(resolve("")).To(BeEmpty())
		Expect(resolve("\n  \n")).To(BeEmpty())
	})
})
