// Package llm owns the model collaborator contract: the prompt sent for
// an invoice, the parsing of whatever text comes back, and the mapping
// of that payload onto canonical fields.
package llm

import "context"

// ModelClient is the single capability the core needs from a language
// model: one deterministic completion per prompt. Implementations live
// in the openai and gemini subpackages; tests inject fakes.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelClientFunc adapts a function to the ModelClient interface.
type ModelClientFunc func(ctx context.Context, prompt string) (string, error)

func (f ModelClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
