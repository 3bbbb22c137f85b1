// Package config resolves f1metrix settings from defaults, an optional YAML
// file, F1METRIX_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides: F1METRIX_DATABASE_PATH.
	EnvPrefix = "F1METRIX"

	// DefaultConfigFileName is searched for in the working directory.
	DefaultConfigFileName = "f1metrix"

	DefaultDatabasePath = "model_results.db"
	DefaultServerAddr   = ":8080"
	DefaultLogLevel     = "info"
)

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig locates the model results database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CatalogConfig locates the editorial query catalog.
// An empty path selects the embedded catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// SchemaConfig locates the CUE table schemas.
// An empty path selects the embedded schemas.
type SchemaConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("catalog.path", "")
	v.SetDefault("schema.path", "")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("logging.level", DefaultLogLevel)
}

// Load reads cfgFile, or f1metrix.yaml from the working directory when
// cfgFile is empty, and returns the validated configuration. A missing
// default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Server:   ServerConfig{Addr: DefaultServerAddr},
		Logging:  LoggingConfig{Level: DefaultLogLevel},
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a logging.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid logging.level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}
