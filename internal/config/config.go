// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted in store.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DefaultPort is the listening port used when neither config nor the command line sets one.
const DefaultPort = 8117

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	ShutdownSeconds       int `mapstructure:"shutdown_seconds"`
}

// StoreConfig selects and tunes the score store.
type StoreConfig struct {
	Driver         string `mapstructure:"driver"`
	DSN            string `mapstructure:"dsn"`
	Table          string `mapstructure:"table"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	ConnLifetimeMs int    `mapstructure:"conn_lifetime_ms"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// I18nConfig holds locale negotiation settings.
type I18nConfig struct {
	DefaultLocale string `mapstructure:"default_locale"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
}

// Load builds a Config from disk/environment. With an empty path it looks for
// config.yaml in the working directory, /etc/openwax and $HOME/.openwax, and
// runs on defaults and environment alone when none exists.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OPENWAX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/openwax/")
		v.AddConfigPath("$HOME/.openwax")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("server.shutdown_seconds", 10)
	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("store.dsn", "postgres://localhost:5432/openwax?sslmode=disable")
	v.SetDefault("store.table", "scores")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("store.conn_lifetime_ms", 0)
	v.SetDefault("logging.development", true)
	v.SetDefault("i18n.default_locale", "en")
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.service_name", "openwax")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set for driver %q", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver %q is not one of postgres, sqlite, memory", c.Store.Driver)
	}
	if c.Store.MaxConns < 0 || c.Store.MinConns < 0 {
		return fmt.Errorf("store.max_conns and store.min_conns must be >= 0")
	}
	return nil
}

// RequestTimeout converts the configured seconds into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful HTTP shutdown; it defaults to 10s.
func (c Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

// ConnLifetime converts store.conn_lifetime_ms into a duration.
func (c Config) ConnLifetime() time.Duration {
	return time.Duration(c.Store.ConnLifetimeMs) * time.Millisecond
}
