package config

import "time"

// Config is the root configuration structure
type Config struct {
	Version    int              `yaml:"version"`
	Database   DatabaseConfig   `yaml:"database"`
	Scan       ScanConfig       `yaml:"scan"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Announce   AnnounceConfig   `yaml:"announce"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Server     ServerConfig     `yaml:"server"`
}

// DatabaseConfig locates the persisted network store
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScanConfig selects and tunes the scan backend
type ScanConfig struct {
	// Backend: auto, nmcli, iw, netsh, nmap, ssh
	Backend string `yaml:"backend"`
	// Interface is the local wireless interface (iw backend)
	Interface string `yaml:"interface,omitempty"`
	// Interval between scan cycles
	Interval Duration `yaml:"interval"`
	// Timeout for one scan call
	Timeout Duration `yaml:"timeout"`
	// NmapTargets are CIDR ranges for the LAN-presence fallback
	NmapTargets []string `yaml:"nmap_targets,omitempty"`
	// SSH configures remote scanning on a router
	SSH SSHConfig `yaml:"ssh,omitempty"`
}

// SSHConfig holds remote scan credentials
type SSHConfig struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	User      string `yaml:"user,omitempty"`
	KeyPath   string `yaml:"key_path,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Interface string `yaml:"interface,omitempty"`
}

// ThresholdsConfig holds the announcement significance thresholds
type ThresholdsConfig struct {
	// SignalJump is the strict percentage-point increase required for a
	// "moving closer" announcement
	SignalJump int `yaml:"signal_jump"`
	// CloseProximity is the signal above which a new network is
	// announced as very close by
	CloseProximity int `yaml:"close_proximity"`
}

// AnnounceConfig controls the spoken half of announcements
type AnnounceConfig struct {
	// Speech enables text-to-speech output
	Speech bool `yaml:"speech"`
	// Binary names the TTS binary explicitly; empty probes the PATH
	Binary string `yaml:"binary,omitempty"`
}

// PromptConfig controls the naming prompt
type PromptConfig struct {
	Enabled bool `yaml:"enabled"`
	// Wait: async (label applied next cycle) or block (original behavior)
	Wait    string   `yaml:"wait"`
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig controls the optional status/SSE endpoint
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Duration wraps time.Duration for human-readable yaml ("10s", "5m")
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
