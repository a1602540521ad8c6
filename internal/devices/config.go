package devices

import "github.com/HerbHall/pppmirror/internal/routeros"

// Config holds the device registry settings.
type Config struct {
	// DefaultPort is used when a device is created without an API port.
	DefaultPort int `mapstructure:"default_port"`
	// CredentialPassphrase, when set, encrypts stored device passwords.
	CredentialPassphrase string `mapstructure:"credential_passphrase"` //nolint:gosec // G101: config field name
}

// DefaultConfig returns sensible defaults for the device registry.
func DefaultConfig() Config {
	return Config{DefaultPort: routeros.DefaultPort}
}
