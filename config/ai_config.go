package config

import (
	"os"
	"strings"
)

// Supported AI providers.
const (
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderGemini      = "gemini"
	ProviderPlaceholder = "placeholder"
)

// AIConfig holds the AI provider selection and credentials.
// API keys can also be set via environment variables
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, OLLAMA_HOST).
type AIConfig struct {
	Provider          string          `mapstructure:"provider" validate:"oneof=ollama openai anthropic gemini placeholder"`
	RequestsPerMinute int             `mapstructure:"requests_per_minute" validate:"gte=0"`
	Ollama            OllamaConfig    `mapstructure:"ollama"`
	OpenAI            OpenAIConfig    `mapstructure:"openai"`
	Anthropic         AnthropicConfig `mapstructure:"anthropic"`
	Gemini            GeminiConfig    `mapstructure:"gemini"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

// OpenAIConfig holds OpenAI-specific settings. BaseURL points the client
// at any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// GeminiConfig holds Google Gemini-specific settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// applyProviderEnv lets the providers' conventional variables override
// the file config.
func (c *AIConfig) applyProviderEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		// ollama itself accepts a bare host:port
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		c.Ollama.Host = v
	}
}
