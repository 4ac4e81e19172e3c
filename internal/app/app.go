// Package app holds the startup steps shared by the gocirculate commands:
// flags, config loading, logging and the cooker link.
package app

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/chaz8081/gocirculate/internal/anova"
	"github.com/chaz8081/gocirculate/internal/ble"
	"github.com/chaz8081/gocirculate/internal/config"
)

// Flags are the command-line options every command accepts.
type Flags struct {
	ConfigPath string
	MAC        string
}

// RegisterFlags adds -config and -mac to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "path to config file (default: ~/.config/gocirculate/config.yaml)")
	fs.StringVar(&f.MAC, "mac", "", "cooker Bluetooth address (overrides device.address)")
	return f
}

// Setup loads and validates the configuration, applies flag overrides and
// installs the default slog logger writing to logOut.
func Setup(f *Flags, logOut io.Writer) (*config.Config, error) {
	cfg, err := LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if f.MAC != "" {
		cfg.Device.Address = f.MAC
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	SetupLogging(cfg.LogLevel, logOut)
	return cfg, nil
}

// LoadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// SetupLogging installs a text slog handler at the given level.
func SetupLogging(level string, w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: config.ParseLogLevel(level)})
	slog.SetDefault(slog.New(handler))
}

// Cooker is an open command path to one device.
type Cooker struct {
	Link       *ble.IdleSession
	Controller *anova.Controller
}

// Close releases the link.
func (c *Cooker) Close() error {
	return c.Link.Close()
}

// OpenCooker wires a session, its idle supervisor and the command set for
// the configured device. No connection is made until the first command.
func OpenCooker(cfg *config.Config, adapter ble.Adapter) *Cooker {
	session := ble.NewSession(adapter, cfg.Device.Address, cfg.SessionOptions())
	link := ble.NewIdleSession(session, cfg.IdleOptions())
	return &Cooker{
		Link:       link,
		Controller: anova.NewController(link),
	}
}

// PrintBanner displays the startup configuration summary.
func PrintBanner(w io.Writer, name string, cfg *config.Config) {
	fmt.Fprintf(w, "=== %s ===\n", name)
	fmt.Fprintf(w, "  Device:  %s\n", cfg.Device.Address)
	fmt.Fprintf(w, "  Wait:    %s per command\n", cfg.Device.WaitBudget)
	fmt.Fprintf(w, "  Idle:    %s (heartbeat %s)\n", cfg.Session.IdleTimeout, cfg.Session.Heartbeat)
	fmt.Fprintf(w, "  Log:     %s\n", cfg.LogLevel)
	fmt.Fprintln(w, "====================")
}
