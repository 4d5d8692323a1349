// Command invoice-analyzer analyzes Spanish invoice documents: it
// acquires text from a PDF or image, runs the model-assisted extraction
// pipeline and prints the result as JSON. With -xlsx it also writes an
// XLSX summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/facturio/invoice-analyzer/constants"
	"github.com/facturio/invoice-analyzer/internal/acquire"
	"github.com/facturio/invoice-analyzer/internal/analyzer"
	"github.com/facturio/invoice-analyzer/internal/common"
	"github.com/facturio/invoice-analyzer/internal/export"
	"github.com/facturio/invoice-analyzer/internal/llm"
	"github.com/facturio/invoice-analyzer/internal/llm/gemini"
	"github.com/facturio/invoice-analyzer/internal/llm/openai"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	docType := flag.String("type", "expense", "document type: expense or income")
	xlsxPath := flag.String("xlsx", "", "also write an XLSX summary to this path")
	flag.Parse()

	if flag.NArg() < 1 {
		logger.Error("usage: invoice-analyzer [-type expense|income] [-xlsx out.xlsx] <file>...")
		os.Exit(2)
	}
	documentType := constants.DocumentExpense
	switch *docType {
	case "expense":
	case "income":
		documentType = constants.DocumentIncome
	default:
		logger.Error("invalid -type", "type", *docType)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	model, closeModel, err := buildModel(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("wire model client", "error", err)
		os.Exit(1)
	}
	defer closeModel()

	acquirer := acquire.NewFileAcquirer(nil, logger)
	a := analyzer.New(model, logger)

	var rows []export.Row
	results := make([]analyzer.Result, 0, flag.NArg())
	for _, path := range flag.Args() {
		raw, err := acquirer.Acquire(ctx, path)
		if err != nil {
			logger.Error("acquire text", "path", path, "error", err)
			os.Exit(1)
		}
		result, err := a.AnalyzeInvoice(ctx, analyzer.Request{
			Raw:            raw,
			DocumentType:   documentType,
			CompanyNames:   cfg.Analysis.CompanyNames,
			KnownSuppliers: cfg.Analysis.KnownSuppliers,
		})
		if err != nil {
			logger.Error("analyze invoice", "path", path, "error", err)
			os.Exit(1)
		}
		results = append(results, result)
		rows = append(rows, export.Row{Filename: path, Result: result})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, result := range results {
		if err := enc.Encode(result); err != nil {
			logger.Error("encode result", "error", err)
			os.Exit(1)
		}
	}

	if *xlsxPath != "" {
		data, err := export.NewService(logger).ResultsXLSX(rows)
		if err != nil {
			logger.Error("build xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, data, 0o644); err != nil {
			logger.Error("write xlsx", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *xlsxPath, "rows", len(rows))
	}
}

// buildModel wires the configured provider behind the ModelClient
// contract. The returned closer is a no-op for providers without a
// connection to release.
func buildModel(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.ModelClient, func(), error) {
	switch cfg.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		client, err := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
}
