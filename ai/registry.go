package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/DachengChen/chatdb/config"
)

// SupportedProviders lists available provider names for display.
var SupportedProviders = []string{
	config.ProviderOllama,
	config.ProviderOpenAI,
	config.ProviderAnthropic,
	config.ProviderGemini,
	config.ProviderPlaceholder,
}

// NewProvider creates an AI provider from the application config.
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	var (
		llm  llms.Model
		name string
		err  error
	)
	switch cfg.Provider {
	case config.ProviderOllama:
		name = fmt.Sprintf("Ollama (%s)", cfg.Ollama.Model)
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.Ollama.Host),
			ollama.WithModel(cfg.Ollama.Model),
		)

	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not set. Set OPENAI_API_KEY or ai.openai.api_key")
		}
		name = fmt.Sprintf("OpenAI (%s)", cfg.OpenAI.Model)
		opts := []openai.Option{openai.WithToken(cfg.OpenAI.APIKey), openai.WithModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		llm, err = openai.New(opts...)

	case config.ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key not set. Set ANTHROPIC_API_KEY or ai.anthropic.api_key")
		}
		name = fmt.Sprintf("Anthropic (%s)", cfg.Anthropic.Model)
		llm, err = anthropic.New(
			anthropic.WithToken(cfg.Anthropic.APIKey),
			anthropic.WithModel(cfg.Anthropic.Model),
		)

	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("Gemini API key not set. Set GEMINI_API_KEY or ai.gemini.api_key")
		}
		name = fmt.Sprintf("Gemini (%s)", cfg.Gemini.Model)
		llm, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.Gemini.APIKey),
			googleai.WithDefaultModel(cfg.Gemini.Model),
		)

	case config.ProviderPlaceholder, "":
		return NewPlaceholder(), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q. Supported: %v", cfg.Provider, SupportedProviders)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.Provider, err)
	}
	return NewLangChain(name, llm), nil
}
