package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application settings.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Log     LogConfig     `mapstructure:"log"`
	Journal JournalConfig `mapstructure:"journal"`
	UI      UIConfig      `mapstructure:"ui"`
}

// AppConfig names the panel document to open.
type AppConfig struct {
	Document string `mapstructure:"document"`
}

// LogConfig controls the log file. The terminal belongs to the UI, so logs
// never go to stderr.
type LogConfig struct {
	Path   string `mapstructure:"path"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// JournalConfig holds sqlite event journal settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Columns     int    `mapstructure:"columns"`
	Keybindings string `mapstructure:"keybindings"`
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "panelflow")
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "panelflow")
}

// DefaultPath is where settings live unless PANELFLOW_CONFIG says otherwise.
func DefaultPath() string {
	if p := os.Getenv("PANELFLOW_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.toml")
}

// Load reads settings from the default location and env. Env var overrides
// use prefix PANELFLOW_.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("PANELFLOW_CONFIG"))
}

// LoadFrom reads settings from path, or from the default search location when
// path is empty. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("app.document", "")
	v.SetDefault("log.path", filepath.Join(dataDir(), "panelflow.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(dataDir(), "journal.db"))
	v.SetDefault("ui.columns", 3)
	v.SetDefault("ui.keybindings", filepath.Join(configDir(), "keybindings.toml"))

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PANELFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadOrCreate behaves like LoadFrom but writes the resolved defaults to path
// when no settings file exists there yet. An empty path means DefaultPath.
func LoadOrCreate(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	_, statErr := os.Stat(path)
	cfg, err := LoadFrom(path)
	if err != nil {
		return Config{}, err
	}
	if errors.Is(statErr, fs.ErrNotExist) {
		if err := Save(cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	if c.UI.Columns < 1 {
		return fmt.Errorf("ui.columns must be at least 1, got %d", c.UI.Columns)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level as a slog level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Save writes the provided config to path, or to DefaultPath when path is
// empty, creating the config directory if needed.
func Save(cfg Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("app.document", cfg.App.Document)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("ui.columns", cfg.UI.Columns)
	v.Set("ui.keybindings", cfg.UI.Keybindings)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
