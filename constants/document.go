package constants

// DocumentType distinguishes received (expense) from issued (income) invoices.
type DocumentType string

const (
	DocumentExpense DocumentType = "expense"
	DocumentIncome  DocumentType = "income"
)

// SourceKind records how the raw text was acquired from the document.
type SourceKind string

const (
	SourceEmbedded   SourceKind = "embedded"    // typed PDF, text layer present
	SourceOCRScanned SourceKind = "ocr_scanned" // scanned PDF run through OCR
	SourceOCRImage   SourceKind = "ocr_image"   // photographed image run through OCR
)

// UsedOCR reports whether the kind implies an OCR pass (and therefore
// acquisition-quality gating before the model call).
func (k SourceKind) UsedOCR() bool {
	return k == SourceOCRScanned || k == SourceOCRImage
}
