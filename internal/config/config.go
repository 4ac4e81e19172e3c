package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/chaz8081/gocirculate/internal/ble"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device   DeviceConfig  `yaml:"device"`
	Session  SessionConfig `yaml:"session"`
	HTTP     HTTPConfig    `yaml:"http"`
	LogLevel string        `yaml:"log_level"`
}

// DeviceConfig holds link settings for the cooker.
type DeviceConfig struct {
	Address        string        `yaml:"address"`         // MAC, or CoreBluetooth UUID on macOS
	WaitBudget     time.Duration `yaml:"wait_budget"`     // per-command response wait
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // per connect attempt
	MTU            int           `yaml:"mtu"`             // max bytes per write
}

// SessionConfig holds idle-timeout supervisor settings.
type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
}

// HTTPConfig holds REST façade settings.
type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gocirculate")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			WaitBudget:     time.Second,
			ConnectTimeout: 10 * time.Second,
			MTU:            20,
		},
		Session: SessionConfig{
			IdleTimeout: 60 * time.Second,
			Heartbeat:   20 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:           ":5000",
			StreamInterval: 5 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

const defaultTemplate = `# gocirculate configuration
#
# device.address is the cooker's Bluetooth address. Find it with:
#   anova-scan
device:
  address: ""
  wait_budget: 1s
  connect_timeout: 10s
  mtu: 20

# The link is closed after idle_timeout without commands and reopened on
# the next command. heartbeat is how often the idle check runs.
session:
  idle_timeout: 60s
  heartbeat: 20s

http:
  addr: ":5000"
  stream_interval: 5s

log_level: info
`

// WriteDefault writes a commented default config to DefaultConfigPath and
// returns its path. If a config already exists it returns ("", nil) and
// leaves the file untouched.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidAddress reports whether addr is a 6-byte MAC address or a
// CoreBluetooth peripheral UUID.
func ValidAddress(addr string) bool {
	if uuidPattern.MatchString(addr) {
		return true
	}
	hw, err := net.ParseMAC(addr)
	return err == nil && len(hw) == 6
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Address == "" {
		return fmt.Errorf("device.address must not be empty")
	}
	if !ValidAddress(c.Device.Address) {
		return fmt.Errorf("device.address must be a MAC address like 78:A5:04:38:B3:FA, got %q", c.Device.Address)
	}

	if c.Device.WaitBudget <= 0 {
		return fmt.Errorf("device.wait_budget must be > 0")
	}
	if c.Device.ConnectTimeout <= 0 {
		return fmt.Errorf("device.connect_timeout must be > 0")
	}
	if c.Device.MTU < 20 || c.Device.MTU > 512 {
		return fmt.Errorf("device.mtu must be between 20 and 512, got %d", c.Device.MTU)
	}

	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session.idle_timeout must be > 0")
	}
	if c.Session.Heartbeat <= 0 {
		return fmt.Errorf("session.heartbeat must be > 0")
	}
	if c.Session.Heartbeat > c.Session.IdleTimeout {
		return fmt.Errorf("session.heartbeat (%s) must not exceed session.idle_timeout (%s)", c.Session.Heartbeat, c.Session.IdleTimeout)
	}

	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must not be empty")
	}
	if c.HTTP.StreamInterval <= 0 {
		return fmt.Errorf("http.stream_interval must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a log_level value to a slog.Level. Unknown values map
// to info.
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

// SessionOptions returns the link settings for ble.NewSession.
func (c *Config) SessionOptions() ble.SessionOptions {
	opts := ble.DefaultSessionOptions()
	opts.WaitBudget = c.Device.WaitBudget
	opts.ConnectTimeout = c.Device.ConnectTimeout
	opts.MTU = c.Device.MTU
	return opts
}

// IdleOptions returns the supervisor settings for ble.NewIdleSession.
func (c *Config) IdleOptions() ble.IdleOptions {
	return ble.IdleOptions{
		Timeout:   c.Session.IdleTimeout,
		Heartbeat: c.Session.Heartbeat,
	}
}
