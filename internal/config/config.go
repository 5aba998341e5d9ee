// Package config loads screener configuration.
//
// Values come from, in increasing priority: built-in defaults, a
// screener.yaml file, SCREENER_* environment variables, and command line
// flags. Nested keys map to environment variables with "_", so
// server.addr is SCREENER_SERVER_ADDR.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vegasq/screener/internal/logging"
	"github.com/vegasq/screener/output"
	"github.com/vegasq/screener/reader"
	"github.com/vegasq/screener/table"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "SCREENER"

// Config holds all application configuration.
type Config struct {
	// Table data location and encoding
	Data struct {
		Location   string `mapstructure:"location"`
		Format     string `mapstructure:"format"` // "auto", "csv", "parquet"
		Identifier string `mapstructure:"identifier"`
	} `mapstructure:"data"`

	// S3-compatible object storage used for s3:// locations
	Storage struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Secure    bool   `mapstructure:"secure"`
		Region    string `mapstructure:"region"`
	} `mapstructure:"storage"`

	// HTTP service
	Server struct {
		Addr            string        `mapstructure:"addr"`
		CORSOrigins     []string      `mapstructure:"cors_origins"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	// Logging configuration
	Logging struct {
		Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
		Format string `mapstructure:"format"` // "text" or "json"
	} `mapstructure:"logging"`

	// Result rendering
	Output struct {
		Format  string   `mapstructure:"format"`
		Columns []string `mapstructure:"columns"` // empty means the default column order
	} `mapstructure:"output"`
}

// flagKeys maps command line flags to the keys they override.
var flagKeys = map[string]string{
	"data-format": "data.format",
	"identifier":  "data.identifier",
	"addr":        "server.addr",
	"log-level":   "logging.level",
	"log-format":  "logging.format",
	"format":      "output.format",
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.location", "")
	v.SetDefault("data.format", "auto")
	v.SetDefault("data.identifier", table.DefaultIdentifier)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.secure", true)
	v.SetDefault("storage.region", "")

	v.SetDefault("server.addr", ":5003")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.format", "jsonl")
	v.SetDefault("output.columns", []string{})
}

// Load reads configuration. configFile, when set, must exist; otherwise
// screener.yaml is looked up in the current directory and the user config
// directory, and its absence is not an error. Flags of fs that appear in
// flagKeys are bound over the other sources.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("screener")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "screener"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		slog.Debug("no screener.yaml found, using defaults")
	} else {
		slog.Debug("loaded configuration", "file", v.ConfigFileUsed())
	}

	// Allow environment variables to override config file
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindFlags binds the flags of fs that override configuration keys.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	if _, err := reader.ParseFormat(c.Data.Format); err != nil {
		return fmt.Errorf("data.format: %w", err)
	}
	if strings.TrimSpace(c.Data.Identifier) == "" {
		return errors.New("data.identifier must not be empty")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: invalid value %q", c.Logging.Format)
	}
	if _, err := output.New(c.Output.Format, nil); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	return nil
}

// SourceOptions returns the reader options described by the configuration.
func (c *Config) SourceOptions() reader.Options {
	format, _ := reader.ParseFormat(c.Data.Format)
	return reader.Options{
		Identifier: c.Data.Identifier,
		Format:     format,
		Storage: reader.StorageOptions{
			Endpoint:  c.Storage.Endpoint,
			AccessKey: c.Storage.AccessKey,
			SecretKey: c.Storage.SecretKey,
			Secure:    c.Storage.Secure,
			Region:    c.Storage.Region,
		},
	}
}

// OutputColumns returns the configured output column order, or nil for the
// default order.
func (c *Config) OutputColumns() []string {
	var columns []string
	for _, col := range c.Output.Columns {
		if col = strings.TrimSpace(col); col != "" {
			columns = append(columns, col)
		}
	}
	return columns
}
