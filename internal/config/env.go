package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig          = "PIKPAK_GO_CONFIG"
	EnvUsername        = "PIKPAK_GO_USERNAME"
	EnvPassword        = "PIKPAK_GO_PASSWORD"
	EnvCredentialsFile = "PIKPAK_GO_CREDENTIALS"
)

// EnvOverrides holds values derived from environment variables.
// These are resolved by ReadEnvOverrides and made available to callers.
type EnvOverrides struct {
	ConfigPath      string // PIKPAK_GO_CONFIG: override config file path
	Username        string // PIKPAK_GO_USERNAME: account username
	Password        string // PIKPAK_GO_PASSWORD: account password
	CredentialsFile string // PIKPAK_GO_CREDENTIALS: credential file path
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:      os.Getenv(EnvConfig),
		Username:        os.Getenv(EnvUsername),
		Password:        os.Getenv(EnvPassword),
		CredentialsFile: os.Getenv(EnvCredentialsFile),
	}
}
