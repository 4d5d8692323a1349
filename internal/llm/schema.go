package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is the contract the prompt asks the model to honor.
// Validation failures are advisory: the lenient key mapper still runs,
// the failure is only surfaced for logging.
var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"supplier":           map[string]any{"type": []string{"string", "null"}},
		"client":             map[string]any{"type": []string{"string", "null"}},
		"invoice_date":       map[string]any{"type": []string{"string", "null"}},
		"payment_terms_days": map[string]any{"type": []string{"number", "null"}},
		"payment_dates": map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"totals": map[string]any{
			"type": []string{"object", "null"},
			"properties": map[string]any{
				"base_amount":  map[string]any{"type": []string{"number", "string", "null"}},
				"vat_rate":     map[string]any{"type": []string{"number", "string", "null"}},
				"vat_amount":   map[string]any{"type": []string{"number", "string", "null"}},
				"total_amount": map[string]any{"type": []string{"number", "string", "null"}},
			},
		},
		"vat_breakdown": map[string]any{
			"type": []string{"array", "object", "null"},
		},
	},
}

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// ValidateResponse checks an extracted response object against the
// prompt contract. A non-nil error means the model drifted from the
// contract, not that the object is unusable.
func ValidateResponse(obj map[string]any) error {
	compileOnce.Do(func() {
		b, err := json.Marshal(responseSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("response.json")
	})
	if compileErr != nil {
		return compileErr
	}
	if err := compiledSchema.Validate(normalizeForSchema(obj)); err != nil {
		return fmt.Errorf("response does not match contract: %w", err)
	}
	return nil
}

// normalizeForSchema round-trips the object through encoding/json so the
// validator sees the same shapes Unmarshal produces.
func normalizeForSchema(obj map[string]any) any {
	b, err := json.Marshal(obj)
	if err != nil {
		return obj
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return obj
	}
	return v
}
