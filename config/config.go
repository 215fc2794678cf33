package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	configName = ".rbtree"
	configType = "yaml"
	envPrefix  = "RBTREE"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"

	MetricsExporterNone       = "none"
	MetricsExporterConsole    = "console"
	MetricsExporterPrometheus = "prometheus"
)

const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = LogFormatText
	DefaultMetricsExporter = MetricsExporterNone
	DefaultMetricsInterval = 10 * time.Second
	DefaultMetricsListen   = "127.0.0.1:9464"
	DefaultShellColor      = true
	DefaultShellPrompt     = "rbtree> "
	DefaultShellValidate   = false
)

var (
	ErrInvalidLogLevel        = errors.New("[config] invalid log level")
	ErrInvalidLogFormat       = errors.New("[config] invalid log format")
	ErrInvalidMetricsExporter = errors.New("[config] invalid metrics exporter")
	ErrInvalidMetricsListen   = errors.New("[config] invalid metrics listen address")
	ErrInvalidMetricsInterval = errors.New("[config] invalid metrics interval")
	ErrNoConfigFile           = errors.New("[config] no config file to watch")
)

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Exporter string        `mapstructure:"exporter" yaml:"exporter"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Listen   string        `mapstructure:"listen" yaml:"listen"`
}

type ShellConfig struct {
	Color    bool   `mapstructure:"color" yaml:"color"`
	Prompt   string `mapstructure:"prompt" yaml:"prompt"`
	Validate bool   `mapstructure:"validate" yaml:"validate"`
}

type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Shell   ShellConfig   `mapstructure:"shell" yaml:"shell"`

	path      string
	overrides map[string]any
}

// Path is the config file in use, empty when only defaults and env apply.
func (cfg *Config) Path() string {
	return cfg.path
}

func (cfg *Config) Validate() error {
	var err error
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case LogFormatJSON, LogFormatText:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Log.Format))
	}
	switch cfg.Metrics.Exporter {
	case MetricsExporterNone, MetricsExporterConsole:
	case MetricsExporterPrometheus:
		if _, _, splitErr := net.SplitHostPort(cfg.Metrics.Listen); splitErr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: %q", ErrInvalidMetricsListen, cfg.Metrics.Listen))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, cfg.Metrics.Exporter))
	}
	if cfg.Metrics.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s", ErrInvalidMetricsInterval, cfg.Metrics.Interval))
	}
	return err
}

// Load reads the defaults, the config file and the RBTREE_ prefixed env.
// If path is empty, .rbtree.yaml is searched in the working directory
// and $HOME, a missing file is not an error.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithOverrides is Load with explicitly set keys (flags) taking
// precedence over the file and env.
func LoadWithOverrides(path string, overrides map[string]any) (*Config, error) {
	return load(path, overrides)
}

func load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	cfg.path = v.ConfigFileUsed()
	cfg.overrides = overrides
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("metrics.exporter", DefaultMetricsExporter)
	v.SetDefault("metrics.interval", DefaultMetricsInterval)
	v.SetDefault("metrics.listen", DefaultMetricsListen)

	v.SetDefault("shell.color", DefaultShellColor)
	v.SetDefault("shell.prompt", DefaultShellPrompt)
	v.SetDefault("shell.validate", DefaultShellValidate)
}
