// Command loan-schedule extracts an amortization schedule from a loan
// plan document and prints the installments as JSON.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/facturio/invoice-analyzer/internal/acquire"
	"github.com/facturio/invoice-analyzer/internal/common"
	"github.com/facturio/invoice-analyzer/internal/llm/openai"
	"github.com/facturio/invoice-analyzer/internal/loans"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		logger.Error("usage: loan-schedule <file.pdf>")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("model API key is required")
		os.Exit(2)
	}

	client, err := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error("wire model client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	raw, err := acquire.NewFileAcquirer(nil, logger).Acquire(ctx, os.Args[1])
	if err != nil {
		logger.Error("acquire text", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	schedule, err := loans.NewExtractor(client, logger).ExtractSchedule(ctx, raw.Text)
	if err != nil {
		logger.Error("extract schedule", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schedule); err != nil {
		logger.Error("encode schedule", "error", err)
		os.Exit(1)
	}
}
