// Package acquire turns invoice files into raw text plus metadata about
// how that text was obtained. Typed PDFs surface their embedded text
// layer; scanned PDFs and photos go through an OCR collaborator.
package acquire

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/textscan"
)

// RawDocumentText is the acquisition result handed to the analyzer.
type RawDocumentText struct {
	Text string
	Kind constants.SourceKind
	// EmbeddedText keeps the PDF text layer even when OCR replaced it,
	// for supplier resolution against the typed layer.
	EmbeddedText string
}

// TextAcquisition extracts raw text from a document on disk.
type TextAcquisition interface {
	Acquire(ctx context.Context, path string) (RawDocumentText, error)
}

// OCRRunner rasterizes and recognizes a scanned document. Implementations
// wrap an external OCR engine; a nil runner means scanned input yields
// empty text and the quality gate downstream rejects it.
type OCRRunner interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// IsPDF reports whether a filename looks like a PDF.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// IsImage reports whether a filename looks like a supported photo format.
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// significantEmbeddedText decides whether a PDF text layer is real
// content or the stray characters scanners leave behind.
func significantEmbeddedText(text string) bool {
	return textscan.IsTextSignificant(text, embeddedTextThreshold)
}

const embeddedTextThreshold = 100
