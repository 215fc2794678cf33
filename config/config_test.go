package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, path string, cfg any) {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultLogLevel, cfg.Log.Level)
	require.Equal(t, DefaultLogFormat, cfg.Log.Format)
	require.Equal(t, DefaultMetricsExporter, cfg.Metrics.Exporter)
	require.Equal(t, DefaultMetricsInterval, cfg.Metrics.Interval)
	require.Equal(t, DefaultMetricsListen, cfg.Metrics.Listen)
	require.True(t, cfg.Shell.Color)
	require.Equal(t, DefaultShellPrompt, cfg.Shell.Prompt)
	require.False(t, cfg.Shell.Validate)
	require.Empty(t, cfg.Path())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbtree.yaml")
	writeConfig(t, path, map[string]any{
		"log": map[string]any{
			"level":  "debug",
			"format": "json",
		},
		"metrics": map[string]any{
			"exporter": "prometheus",
			"interval": "2s",
			"listen":   "127.0.0.1:0",
		},
		"shell": map[string]any{
			"color":    false,
			"validate": true,
		},
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, LogFormatJSON, cfg.Log.Format)
	require.Equal(t, MetricsExporterPrometheus, cfg.Metrics.Exporter)
	require.Equal(t, 2*time.Second, cfg.Metrics.Interval)
	require.Equal(t, "127.0.0.1:0", cfg.Metrics.Listen)
	require.False(t, cfg.Shell.Color)
	require.True(t, cfg.Shell.Validate)
	require.Equal(t, DefaultShellPrompt, cfg.Shell.Prompt)
	require.Equal(t, path, cfg.Path())
}

func TestLoadEnvAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbtree.yaml")
	writeConfig(t, path, Config{
		Log:     LogConfig{Level: "warn", Format: LogFormatText},
		Metrics: MetricsConfig{Exporter: MetricsExporterNone, Interval: time.Second, Listen: DefaultMetricsListen},
		Shell:   ShellConfig{Color: true, Prompt: "> "},
	})
	t.Setenv("RBTREE_LOG_LEVEL", "error")
	t.Setenv("RBTREE_SHELL_PROMPT", "tree$ ")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Log.Level)
	require.Equal(t, "tree$ ", cfg.Shell.Prompt)

	cfg, err = LoadWithOverrides(path, map[string]any{
		"log.level":        "debug",
		"metrics.exporter": MetricsExporterConsole,
		"shell.color":      false,
	})
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, MetricsExporterConsole, cfg.Metrics.Exporter)
	require.False(t, cfg.Shell.Color)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	testcases := []struct {
		name     string
		content  map[string]any
		expected error
	}{
		{"log level", map[string]any{"log": map[string]any{"level": "verbose"}}, ErrInvalidLogLevel},
		{"log format", map[string]any{"log": map[string]any{"format": "xml"}}, ErrInvalidLogFormat},
		{"exporter", map[string]any{"metrics": map[string]any{"exporter": "otlp"}}, ErrInvalidMetricsExporter},
		{"listen", map[string]any{"metrics": map[string]any{"exporter": "prometheus", "listen": "9464"}}, ErrInvalidMetricsListen},
		{"interval", map[string]any{"metrics": map[string]any{"interval": "0s"}}, ErrInvalidMetricsInterval},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			writeConfig(tt, path, tc.content)
			_, err := Load(path)
			require.ErrorIs(tt, err, tc.expected)
		})
	}
}

func TestWatch(t *testing.T) {
	_, err := Watch(context.Background(), &Config{}, nil, nil)
	require.ErrorIs(t, err, ErrNoConfigFile)

	path := filepath.Join(t.TempDir(), "rbtree.yaml")
	writeConfig(t, path, map[string]any{"log": map[string]any{"level": "info"}})
	cfg, err := Load(path)
	require.NoError(t, err)

	changed := make(chan *Config, 8)
	failed := make(chan error, 8)
	w, err := Watch(context.Background(), cfg,
		func(c *Config) {
			select {
			case changed <- c:
			default:
			}
		},
		func(err error) {
			select {
			case failed <- err:
			default:
			}
		},
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, w.Close())
	}()

	// A truncate may be observed before the write, wait for the content.
	writeConfig(t, path, map[string]any{"log": map[string]any{"level": "debug"}})
	timeout := time.After(5 * time.Second)
	for observed := false; !observed; {
		select {
		case c := <-changed:
			observed = c.Log.Level == "debug"
		case <-timeout:
			t.Fatal("config change not observed")
		}
	}

	writeConfig(t, path, map[string]any{"log": map[string]any{"level": "verbose"}})
	select {
	case err := <-failed:
		require.ErrorIs(t, err, ErrInvalidLogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("invalid config not reported")
	}

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("a: 1"), 0o600))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatchKeepsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbtree.yaml")
	writeConfig(t, path, map[string]any{"log": map[string]any{"level": "error", "format": "json"}})
	cfg, err := LoadWithOverrides(path, map[string]any{"log.level": "debug"})
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)

	changed := make(chan *Config, 8)
	w, err := Watch(context.Background(), cfg, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, w.Close())
	}()

	writeConfig(t, path, map[string]any{"log": map[string]any{"level": "warn", "format": "text"}})
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Log.Format != LogFormatText {
				continue
			}
			require.Equal(t, "debug", c.Log.Level)
			require.Equal(t, path, c.Path())
			return
		case <-timeout:
			t.Fatal("config change not observed")
		}
	}
}
