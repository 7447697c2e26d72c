package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and are chosen to work for most users
// without any config file.
const (
	defaultConnectTimeout = "10s"
	defaultDataTimeout    = "60s"
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = "500ms"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			ConnectTimeout: defaultConnectTimeout,
			DataTimeout:    defaultDataTimeout,
			MaxAttempts:    defaultMaxAttempts,
			BaseBackoff:    defaultBaseBackoff,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
