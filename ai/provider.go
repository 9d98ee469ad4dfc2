// Package ai turns questions into SQL and query results into answers,
// using a language model behind the Provider interface.
//
// Design decisions:
//   - Provider is an interface so we can swap backends (Ollama, OpenAI,
//     Anthropic, Gemini) without changing the chat or TUI code.
//   - Every call is a single, self-contained prompt: no conversation
//     state lives in the backend, and earlier turns are never resent.
//   - Real backends go through langchaingo; the placeholder provider
//     returns canned responses for development.
package ai

import "context"

// Provider is the interface all AI backends must implement.
type Provider interface {
	// Complete sends one fully rendered prompt and returns the model's text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name for display.
	Name() string
}

type operationKey struct{}

// withOperation tags ctx with the pipeline step making the call, for logs.
func withOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

func operationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "complete"
}
