// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for pikpak-go. It supports a
// four-layer override chain (defaults -> config file -> environment ->
// CLI flags).
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Auth    AuthConfig    `toml:"auth"`
	Network NetworkConfig `toml:"network"`
	Logging LoggingConfig `toml:"logging"`
}

// AuthConfig controls account identity and credential storage. Password
// in the config file is optional; the login command prompts when it is
// absent, which keeps plaintext passwords out of config files.
type AuthConfig struct {
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	CredentialsFile string `toml:"credentials_file"`
	DeviceID        string `toml:"device_id"`
}

// NetworkConfig controls HTTP client behavior: timeouts and the retry
// policy of the request pipeline.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	MaxAttempts    int    `toml:"max_attempts"`
	BaseBackoff    string `toml:"base_backoff"`
}

// LoggingConfig controls log output behavior: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath      string  // --config flag (empty = use default)
	Username        *string // --username flag
	CredentialsFile *string // --credentials flag
}
