// Package export produces XLSX workbooks from analysis results.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/facturio/invoice-analyzer/internal/analyzer"
)

// Row pairs a source document with its analysis result.
type Row struct {
	Filename string
	Result   analyzer.Result
}

// Service writes analysis results into an XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultsXLSX returns an XLSX workbook (as bytes) with one row per
// analyzed document.
func (s *Service) ResultsXLSX(rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File",
		"Status",
		"Supplier",
		"Client",
		"Invoice Date",
		"Payment Date",
		"Base",
		"VAT Rate",
		"VAT",
		"Total",
		"Source",
		"Confidence",
		"Consistent",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}

		res := r.Result
		write(1, r.Filename)
		write(2, string(res.Status))
		write(3, strOrEmpty(res.Supplier))
		write(4, strOrEmpty(res.ClientName))
		write(5, strOrEmpty(res.InvoiceDate))
		write(6, strOrEmpty(res.PaymentDate))
		writeFloat(write, 7, res.BaseAmount)
		writeFloat(write, 8, res.VATRate)
		writeFloat(write, 9, res.VATAmount)
		writeFloat(write, 10, res.TotalAmount)
		write(11, string(res.ExtractionSource))
		write(12, res.ConfidenceScore)
		if res.Validation.IsConsistent != nil {
			write(13, *res.Validation.IsConsistent)
		}

		rowIdx++
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // filename
	_ = f.SetColWidth(sheet, "B", "B", 16) // status
	_ = f.SetColWidth(sheet, "C", "D", 30) // parties
	_ = f.SetColWidth(sheet, "E", "F", 14) // dates
	_ = f.SetColWidth(sheet, "G", "J", 12) // amounts
	_ = f.SetColWidth(sheet, "K", "K", 18) // source

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func writeFloat(write func(int, any), col int, v *float64) {
	if v != nil {
		write(col, *v)
	}
}
