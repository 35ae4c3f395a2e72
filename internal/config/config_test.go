package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scan.Backend != "auto" {
		t.Fatalf("expected auto backend, got %q", cfg.Scan.Backend)
	}
	if cfg.Scan.Interval.Duration() != 10*time.Second {
		t.Fatalf("expected 10s interval, got %s", cfg.Scan.Interval.Duration())
	}
	if cfg.Thresholds.SignalJump != 20 || cfg.Thresholds.CloseProximity != 60 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Thresholds)
	}
	if !cfg.Announce.Speech || !cfg.Prompt.Enabled || !cfg.Server.Enabled {
		t.Fatalf("defaults should enable speech, prompt and server: %+v", cfg)
	}
	if cfg.Prompt.Wait != "async" {
		t.Fatalf("expected async prompt wait, got %q", cfg.Prompt.Wait)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
version: 1
database:
  path: /var/lib/signalwarden/wifi.db
scan:
  backend: iw
  interface: wlan0
  interval: 30s
thresholds:
  signal_jump: 15
prompt:
  enabled: true
  wait: block
  timeout: 2m
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, usedPath, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if usedPath != path {
		t.Fatalf("expected path %s, got %s", path, usedPath)
	}

	if cfg.Database.Path != "/var/lib/signalwarden/wifi.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Scan.Backend != "iw" || cfg.Scan.Interface != "wlan0" {
		t.Fatalf("unexpected scan config: %+v", cfg.Scan)
	}
	if cfg.Scan.Interval.Duration() != 30*time.Second {
		t.Fatalf("expected 30s interval, got %s", cfg.Scan.Interval.Duration())
	}
	if cfg.Prompt.Wait != "block" || cfg.Prompt.Timeout.Duration() != 2*time.Minute {
		t.Fatalf("unexpected prompt config: %+v", cfg.Prompt)
	}

	// Omitted values fall back to defaults.
	if cfg.Thresholds.SignalJump != 15 {
		t.Fatalf("explicit threshold lost: %d", cfg.Thresholds.SignalJump)
	}
	if cfg.Thresholds.CloseProximity != 60 {
		t.Fatalf("default close proximity not applied: %d", cfg.Thresholds.CloseProximity)
	}
	if cfg.Scan.Timeout.Duration() != 15*time.Second {
		t.Fatalf("default scan timeout not applied: %s", cfg.Scan.Timeout.Duration())
	}
}

func TestLoadBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scan:\n  interval: soon\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected parse error for bad duration")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scan.Interval = Duration(25 * time.Second)
	cfg.Thresholds.SignalJump = 30

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Scan.Interval.Duration() != 25*time.Second {
		t.Fatalf("interval lost in round trip: %s", loaded.Scan.Interval.Duration())
	}
	if loaded.Thresholds.SignalJump != 30 {
		t.Fatalf("threshold lost in round trip: %d", loaded.Thresholds.SignalJump)
	}
}

func TestFindConfigPathEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvConfigPath, path)
	if got := FindConfigPath(); got != path {
		t.Fatalf("expected %s, got %s", path, got)
	}

	// A dangling env path is ignored rather than failing startup.
	t.Setenv(EnvConfigPath, filepath.Join(dir, "missing.yaml"))
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")
	if got := FindConfigPath(); got != "" {
		t.Fatalf("expected no config found, got %s", got)
	}
}
