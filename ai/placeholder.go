package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Placeholder is a mock AI provider for development. It answers the
// query prompt with a harmless SELECT and the response prompt by echoing
// the result it was given.
type Placeholder struct {
	latency time.Duration
}

var _ Provider = (*Placeholder)(nil)

func NewPlaceholder() *Placeholder {
	return &Placeholder{latency: 300 * time.Millisecond}
}

func (p *Placeholder) Name() string {
	return "placeholder"
}

func (p *Placeholder) Complete(ctx context.Context, prompt string) (string, error) {
	// Simulate network latency
	select {
	case <-time.After(p.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if !strings.HasSuffix(strings.TrimSpace(prompt), responseCue) {
		return "SELECT 'placeholder' AS answer;", nil
	}
	return fmt.Sprintf("🤖 [Placeholder AI] The query returned %s. "+
		"Configure a real AI provider (Ollama, OpenAI, Anthropic, Gemini) to get actual answers.",
		lastField(prompt, "Result :")), nil
}

// lastField returns the text after the last line starting with label.
func lastField(prompt, label string) string {
	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), label); ok {
			return strings.TrimSpace(v)
		}
	}
	return "nothing"
}
