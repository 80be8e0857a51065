// Package config loads the timeflip-logger YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/timeflip-logger/internal/facet"
	"github.com/chaz8081/timeflip-logger/internal/intervals"
	"github.com/chaz8081/timeflip-logger/internal/session"
)

// Config holds all application configuration.
type Config struct {
	Address    string        `yaml:"address"`
	Password   string        `yaml:"password"`
	Output     string        `yaml:"output"`
	LogLevel   string        `yaml:"log_level"`
	Activities []string      `yaml:"activities,omitempty"`
	Session    SessionConfig `yaml:"session"`
	Log        LogConfig     `yaml:"log"`
	MQTT       MQTTConfig    `yaml:"mqtt"`
	SQLite     SQLiteConfig  `yaml:"sqlite"`
}

// SessionConfig holds connection timing.
type SessionConfig struct {
	Backoff        time.Duration `yaml:"backoff"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// LogConfig holds activity log settings.
type LogConfig struct {
	RecordMode string `yaml:"record_mode"` // "split" or "atomic"
	Fsync      bool   `yaml:"fsync"`
}

// MQTTConfig enables publishing to a broker when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// SQLiteConfig enables the interval database when Path is set.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "timeflip-logger")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Password: "000000",
		Output:   "timeflip_activities.csv",
		LogLevel: "info",
		Session: SessionConfig{
			Backoff:        60 * time.Second,
			ReconnectDelay: 2 * time.Second,
			SettleDelay:    time.Second,
			ConnectTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			RecordMode: string(intervals.ModeSplit),
			Fsync:      true,
		},
		MQTT: MQTTConfig{
			Topic:    "timeflip",
			ClientID: "timeflip-logger",
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ExpandPaths()
	return cfg, nil
}

// ExpandPaths expands a leading ~ in every path field.
func (c *Config) ExpandPaths() {
	c.Output = expandTilde(c.Output)
	c.SQLite.Path = expandTilde(c.SQLite.Path)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address must not be empty")
	}

	if err := session.ValidatePassword(c.Password); err != nil {
		return fmt.Errorf("password: %w", err)
	}

	if c.Output == "" {
		return fmt.Errorf("output must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.Activities != nil {
		if len(c.Activities) != facet.Size {
			return fmt.Errorf("activities must list exactly %d names, got %d", facet.Size, len(c.Activities))
		}
		for i, name := range c.Activities {
			if strings.ContainsAny(name, ",\r\n") {
				return fmt.Errorf("activities[%d] %q must not contain commas or newlines", i, name)
			}
		}
	}

	if c.Session.Backoff <= 0 {
		return fmt.Errorf("session.backoff must be > 0")
	}
	if c.Session.ReconnectDelay <= 0 {
		return fmt.Errorf("session.reconnect_delay must be > 0")
	}
	if c.Session.SettleDelay < 0 {
		return fmt.Errorf("session.settle_delay must not be negative")
	}
	if c.Session.ConnectTimeout <= 0 {
		return fmt.Errorf("session.connect_timeout must be > 0")
	}

	switch intervals.RecordMode(c.Log.RecordMode) {
	case intervals.ModeSplit, intervals.ModeAtomic:
	default:
		return fmt.Errorf("log.record_mode must be \"split\" or \"atomic\", got %q", c.Log.RecordMode)
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic must not be empty when mqtt.broker is set")
	}

	return nil
}

// FacetMap builds the facet table, applying any configured override.
func (c *Config) FacetMap() (*facet.Map, error) {
	if c.Activities == nil {
		return facet.Default(), nil
	}
	return facet.New(c.Activities)
}

// ParseLogLevel maps a config log level to slog. Unknown values map to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# timeflip-logger configuration
# address: Bluetooth address of the TimeFlip (MAC on Linux, CoreBluetooth UUID on macOS)
# activities: optional list of 19 names, one per facet ID (0-18)
`

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there yet. It returns the path written, or "" if a file was
// already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	cfg := Default()
	cfg.Activities = facet.Default().Names()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshalling default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
