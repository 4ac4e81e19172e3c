package app

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chaz8081/gocirculate/internal/ble"
	"github.com/chaz8081/gocirculate/internal/config"
)

const testMAC = "78:A5:04:38:B3:FA"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestRegisterFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", "/tmp/x.yaml", "-mac", testMAC}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.ConfigPath != "/tmp/x.yaml" || f.MAC != testMAC {
		t.Errorf("flags = %+v", f)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	path := writeConfig(t, "device:\n  address: \""+testMAC+"\"\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Device.Address != testMAC {
		t.Errorf("Device.Address = %q, want %q", cfg.Device.Address, testMAC)
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Device.WaitBudget != config.Default().Device.WaitBudget {
		t.Errorf("expected defaults, got %+v", cfg.Device)
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "gocirculate")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestSetupMACOverride(t *testing.T) {
	path := writeConfig(t, "device:\n  address: \"00:11:22:33:44:55\"\n")
	cfg, err := Setup(&Flags{ConfigPath: path, MAC: testMAC}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if cfg.Device.Address != testMAC {
		t.Errorf("Device.Address = %q, want %q", cfg.Device.Address, testMAC)
	}
}

func TestSetupRejectsMissingAddress(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	_, err := Setup(&Flags{ConfigPath: path}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "device.address") {
		t.Errorf("Setup() error = %v, want address validation error", err)
	}
}

func TestSetupMissingFile(t *testing.T) {
	if _, err := Setup(&Flags{ConfigPath: "/nonexistent/config.yaml"}, &bytes.Buffer{}); err == nil {
		t.Error("Setup() should fail for a missing explicit config")
	}
}

// failingAdapter refuses to enable so no radio is touched.
type failingAdapter struct{}

func (failingAdapter) Enable() error { return os.ErrPermission }
func (failingAdapter) Scan(context.Context, string) ([]ble.Device, error) {
	return nil, os.ErrPermission
}
func (failingAdapter) Connect(context.Context, string) (ble.Connection, error) {
	return nil, os.ErrPermission
}

func TestOpenCooker(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Address = testMAC
	cfg.Device.ConnectTimeout = 50 * time.Millisecond

	c := OpenCooker(cfg, failingAdapter{})
	defer c.Close()

	if c.Link.Connected() {
		t.Error("OpenCooker should not connect eagerly")
	}
	if got := c.Link.Session().Address(); got != testMAC {
		t.Errorf("Address() = %q, want %q", got, testMAC)
	}

	_, err := c.Controller.Status(context.Background())
	if err == nil {
		t.Fatal("Status() should fail when the adapter cannot be enabled")
	}
}

func TestPrintBanner(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Address = testMAC
	var buf bytes.Buffer
	PrintBanner(&buf, "anova-rest", cfg)
	out := buf.String()
	if !strings.HasPrefix(out, "=== anova-rest ===") {
		t.Errorf("banner should start with the command name, got %q", out)
	}
	if !strings.Contains(out, testMAC) {
		t.Errorf("banner should show the device address, got %q", out)
	}
}
