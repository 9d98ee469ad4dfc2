// Package config defines the application configuration structures.
//
// Separated from cmd to allow other packages (db, ssh, ai, tui) to
// depend on config without importing Cobra.
//
// Design decisions:
//   - Settings come from $XDG_CONFIG_HOME/chatdb/config.yaml, overridden by
//     CHATDB_* environment variables (viper), with defaults for every key.
//   - The database descriptor typed into the connect form is the same
//     Database struct, so one validator covers both sources.
//   - Nothing is ever written back: credentials stay in memory.
package config

// Config holds all application settings.
type Config struct {
	Database Database      `mapstructure:"database"`
	SSH      SSHConfig     `mapstructure:"ssh"`
	AI       AIConfig      `mapstructure:"ai"`
	Log      LogConfig     `mapstructure:"log"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// SSHConfig holds SSH tunnel settings. The tunnel is only used for
// network drivers (mysql, postgres).
type SSHConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	KeyPath       string `mapstructure:"key_path"`
	KeyPassphrase string `mapstructure:"key_passphrase"`
	KnownHosts    string `mapstructure:"known_hosts"`
}

// LogConfig controls the application log file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// MetricsConfig controls the optional Prometheus endpoint.
// An empty Listen disables it.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}
