/*
Package config resolves runtime settings for the bazi command.

SOURCES (highest precedence first):
  1. command-line flags (bound by cmd/bazi)
  2. BAZI_* environment variables, e.g. BAZI_SOURCE, BAZI_LOG_LEVEL
  3. a .env file in the working directory (loaded into the environment)
  4. an optional config file (--config, any format viper reads)
  5. defaults below

The upgrade itself needs only source and target; the rest serve the lookup
server and logging.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys, as used in config files. Environment names are BAZI_ + upper case.
const (
	KeySource         = "source"
	KeyTarget         = "target"
	KeyOverwrite      = "overwrite"
	KeyDB             = "db"
	KeyAddr           = "addr"
	KeyAllowedOrigins = "allowed_origins"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

const envPrefix = "BAZI"

// Config is the resolved settings.
type Config struct {
	Source    string
	Target    string
	Overwrite bool

	DB             string
	Addr           string
	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySource, "./data/bazi_data.db")
	v.SetDefault(KeyTarget, "./data/bazi_data_v2.db")
	v.SetDefault(KeyOverwrite, true)
	v.SetDefault(KeyDB, "./data/bazi_data_v2.db")
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyAllowedOrigins, []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// LoadDotEnv loads path into the process environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// ReadFile merges a config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Load resolves a Config from v.
func Load(v *viper.Viper) Config {
	return Config{
		Source:         v.GetString(KeySource),
		Target:         v.GetString(KeyTarget),
		Overwrite:      v.GetBool(KeyOverwrite),
		DB:             v.GetString(KeyDB),
		Addr:           v.GetString(KeyAddr),
		AllowedOrigins: v.GetStringSlice(KeyAllowedOrigins),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}
}

// ValidateUpgrade checks the settings the migrate command needs.
func (c Config) ValidateUpgrade() error {
	if c.Source == "" {
		return errors.New("source path is required")
	}
	if c.Target == "" {
		return errors.New("target path is required")
	}
	if c.Source == c.Target {
		return fmt.Errorf("source and target are the same file: %s", c.Source)
	}
	return nil
}

// ValidateServe checks the settings the serve command needs.
func (c Config) ValidateServe() error {
	if c.DB == "" {
		return errors.New("db path is required")
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	return nil
}
