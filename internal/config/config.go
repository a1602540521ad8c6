// Package config loads pppmirror configuration once at process start and
// exposes it both as a typed App object and, per plugin section, through the
// plugin.Config interface.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/pppmirror/pkg/plugin"
	"github.com/spf13/viper"
)

// Compile-time interface guard.
var _ plugin.Config = (*ViperConfig)(nil)

// App is the process-level configuration handed to whatever constructs the
// store, the HTTP server and the device client.
type App struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DevMode bool   `mapstructure:"dev_mode"` // serve Swagger UI
}

// Addr returns the listen address as host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig names the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig enables bearer-token authentication on /api/ when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"` //nolint:gosec // G101: config field name
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Validate reports configuration that cannot work.
func (a *App) Validate() error {
	var errs []error
	if a.Server.Port <= 0 || a.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", a.Server.Port))
	}
	if a.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if a.Auth.JWTSecret != "" && len(a.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters"))
	}
	return errors.Join(errs...)
}

// envKeyReplacer maps nested keys to env names: server.port -> SERVER_PORT.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from file and environment variables. An empty
// configPath searches ./pppmirror.yaml, ./configs and /etc/pppmirror; a
// missing file is not an error.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/pppmirror.db")
	v.SetDefault("auth.token_ttl", "720h")

	v.SetDefault("plugins.devices.default_port", 8728)
	v.SetDefault("plugins.ppp.dial_timeout", "10s")
	v.SetDefault("plugins.ppp.serialize_per_device", true)
	v.SetDefault("plugins.webhook.enabled", true)
	v.SetDefault("plugins.webhook.timeout", "10s")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pppmirror")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/pppmirror")
	}

	// PPPM_SERVER_PORT=9090 overrides server.port.
	v.SetEnvPrefix("PPPM")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// Decode unmarshals and validates the process-level sections.
func Decode(v *viper.Viper) (*App, error) {
	var app App
	if err := v.Unmarshal(&app); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &app, nil
}

// ViperConfig wraps a Viper instance to implement plugin.Config.
type ViperConfig struct {
	v *viper.Viper
}

// New creates a Config backed by the given Viper instance.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

func (c *ViperConfig) Get(key string) any {
	return c.v.Get(key)
}

func (c *ViperConfig) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *ViperConfig) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *ViperConfig) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *ViperConfig) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *ViperConfig) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Sub returns the named section. Missing sections yield an empty config
// rather than nil so plugins can always call getters.
func (c *ViperConfig) Sub(key string) plugin.Config {
	sub := c.v.Sub(key)
	if sub == nil {
		return New(nil)
	}
	return New(sub)
}

// Viper returns the underlying Viper instance.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}
