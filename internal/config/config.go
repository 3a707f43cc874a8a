// Package config loads textfilter settings.
//
// Precedence, highest first: command line flags, TEXTFILTER_* environment
// variables (dashes become underscores), then .textfilter.yaml from the
// working directory or ~/.config/textfilter.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/textfilter/internal/input"
	"github.com/hupe1980/textfilter/internal/report"
)

// Log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var (
	logLevels  = []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
	logFormats = []string{LogFormatText, LogFormatJSON}
)

// Config holds the settings shared by every command. Keys match flag names.
type Config struct {
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	NoColor     bool   `mapstructure:"no-color"`
	Quiet       bool   `mapstructure:"quiet"`
	Decompress  string `mapstructure:"decompress"`
	StatsFormat string `mapstructure:"stats-format"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		LogLevel:    LogLevelInfo,
		LogFormat:   LogFormatText,
		Decompress:  input.DecompressNone,
		StatsFormat: report.FormatText,
	}
}

// Validate reports the first setting with an unsupported value.
func (c *Config) Validate() error {
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level %q: must be one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}

	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format %q: must be one of %s", c.LogFormat, strings.Join(logFormats, ", "))
	}

	if err := input.ValidateMode(c.Decompress); err != nil {
		return err
	}

	return report.ValidateFormat(c.StatsFormat)
}

// EffectiveLogLevel is LogLevel, or "error" when Quiet is set.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load resolves the configuration for cmd. configFile, when set, must exist;
// otherwise a missing .textfilter.yaml is not an error. cmd may be nil.
// Each call uses its own viper instance.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", d.NoColor)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("decompress", d.Decompress)
	v.SetDefault("stats-format", d.StatsFormat)

	v.SetEnvPrefix("TEXTFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readFile(v, configFile); err != nil {
		return nil, err
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(".textfilter")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "textfilter"))
	}

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("parsing config file: %w", err)
}

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the Config stored in ctx, or Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
