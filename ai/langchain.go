package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangChain adapts any langchaingo model to Provider.
type LangChain struct {
	name string
	llm  llms.Model
}

var _ Provider = (*LangChain)(nil)

// NewLangChain wraps llm under a display name.
func NewLangChain(name string, llm llms.Model) *LangChain {
	return &LangChain{name: name, llm: llm}
}

func (l *LangChain) Name() string {
	return l.name
}

func (l *LangChain) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, l.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", l.name, err)
	}
	return out, nil
}
