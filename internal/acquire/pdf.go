package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/facturio/invoice-analyzer/constants"
)

// FileAcquirer reads invoice files off disk. PDFs surface their text
// layer through MuPDF; when the layer is not significant, or the input
// is an image, the configured OCRRunner takes over.
type FileAcquirer struct {
	ocr    OCRRunner
	logger *slog.Logger
}

func NewFileAcquirer(ocr OCRRunner, logger *slog.Logger) *FileAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileAcquirer{ocr: ocr, logger: logger}
}

func (a *FileAcquirer) Acquire(ctx context.Context, path string) (RawDocumentText, error) {
	switch {
	case IsPDF(path):
		return a.acquirePDF(ctx, path)
	case IsImage(path):
		return a.acquireImage(ctx, path)
	}
	return RawDocumentText{}, fmt.Errorf("unsupported document type: %s", path)
}

func (a *FileAcquirer) acquirePDF(ctx context.Context, path string) (RawDocumentText, error) {
	embedded, err := extractEmbeddedText(path)
	if err != nil {
		return RawDocumentText{}, fmt.Errorf("extract pdf text: %w", err)
	}

	if significantEmbeddedText(embedded) {
		a.logger.Info("acquire.pdf.embedded", "path", path, "text_len", len(embedded))
		return RawDocumentText{
			Text:         embedded,
			Kind:         constants.SourceEmbedded,
			EmbeddedText: embedded,
		}, nil
	}

	a.logger.Info("acquire.pdf.scanned", "path", path, "embedded_len", len(embedded))
	text, err := a.runOCR(ctx, path)
	if err != nil {
		return RawDocumentText{}, err
	}
	return RawDocumentText{
		Text:         text,
		Kind:         constants.SourceOCRScanned,
		EmbeddedText: embedded,
	}, nil
}

func (a *FileAcquirer) acquireImage(ctx context.Context, path string) (RawDocumentText, error) {
	a.logger.Info("acquire.image", "path", path)
	text, err := a.runOCR(ctx, path)
	if err != nil {
		return RawDocumentText{}, err
	}
	return RawDocumentText{Text: text, Kind: constants.SourceOCRImage}, nil
}

func (a *FileAcquirer) runOCR(ctx context.Context, path string) (string, error) {
	if a.ocr == nil {
		a.logger.Warn("acquire.ocr.unavailable", "path", path)
		return "", nil
	}
	text, err := a.ocr.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("ocr recognize: %w", err)
	}
	return text, nil
}

// extractEmbeddedText joins the text layer of every page.
func extractEmbeddedText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	var parts []string
	for n := 0; n < doc.NumPage(); n++ {
		page, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", n, err)
		}
		parts = append(parts, page)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
