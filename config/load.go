package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	appName   = "chatdb"
	envPrefix = "CHATDB"
)

// Dir returns the directory searched for config.yaml.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultLogFile returns the log path used when log.file is unset.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, appName, "logs", "app.log")
}

// Default returns the configuration used when no file or env is present.
func Default() Config {
	return Config{
		Database: Database{
			Driver:     DriverMySQL,
			Host:       "localhost",
			Port:       3306,
			User:       "root",
			Name:       "manajemensampah",
			SSLMode:    "disable",
			SampleRows: 3,
		},
		SSH: SSHConfig{Port: 22},
		AI: AIConfig{
			Provider: ProviderOllama,
			Ollama:   OllamaConfig{Host: "http://localhost:11434", Model: "llama3"},
			OpenAI:   OpenAIConfig{Model: "gpt-4o"},
			Anthropic: AnthropicConfig{
				Model: "claude-sonnet-4-20250514",
			},
			Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads config.yaml from dir on fs, applies CHATDB_* environment
// overrides and fills defaults. A missing file is not an error.
func Load(fs afero.Fs, dir string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AI.applyProviderEnv()
	if cfg.Log.File == "" {
		cfg.Log.File = DefaultLogFile()
	}
	if err := cfg.AI.Validate(); err != nil {
		return nil, fmt.Errorf("ai config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.sample_rows", d.Database.SampleRows)

	v.SetDefault("ssh.enabled", d.SSH.Enabled)
	v.SetDefault("ssh.host", d.SSH.Host)
	v.SetDefault("ssh.port", d.SSH.Port)
	v.SetDefault("ssh.user", d.SSH.User)
	v.SetDefault("ssh.key_path", d.SSH.KeyPath)
	v.SetDefault("ssh.key_passphrase", d.SSH.KeyPassphrase)
	v.SetDefault("ssh.known_hosts", d.SSH.KnownHosts)

	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.requests_per_minute", d.AI.RequestsPerMinute)
	v.SetDefault("ai.ollama.host", d.AI.Ollama.Host)
	v.SetDefault("ai.ollama.model", d.AI.Ollama.Model)
	v.SetDefault("ai.openai.api_key", d.AI.OpenAI.APIKey)
	v.SetDefault("ai.openai.model", d.AI.OpenAI.Model)
	v.SetDefault("ai.openai.base_url", d.AI.OpenAI.BaseURL)
	v.SetDefault("ai.anthropic.api_key", d.AI.Anthropic.APIKey)
	v.SetDefault("ai.anthropic.model", d.AI.Anthropic.Model)
	v.SetDefault("ai.gemini.api_key", d.AI.Gemini.APIKey)
	v.SetDefault("ai.gemini.model", d.AI.Gemini.Model)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
}
