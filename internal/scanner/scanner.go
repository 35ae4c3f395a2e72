// Package scanner provides the wireless scan boundary: a Scanner interface
// over the OS scanning facility plus the concrete backends (nmcli, iw,
// netsh, an nmap LAN-presence fallback, and a remote scan over SSH) and the
// startup capability negotiation that picks one.
package scanner

import (
	"context"
	"time"

	"signalwarden/internal/domain"
)

// Scanner performs one scan cycle and returns the observed access points
// in scan order. Implementations wrap failures in domain.ErrScanFailed;
// the monitor loop treats those as transient and skips the cycle.
type Scanner interface {
	Name() string
	Scan(ctx context.Context) ([]domain.Observation, error)
}

// SSHSettings configures the remote scan backend.
type SSHSettings struct {
	Host      string
	Port      int
	User      string
	KeyPath   string
	Password  string
	Interface string
}

// Settings selects and configures a backend. Backend "auto" probes the
// PATH for a usable local tool before falling back to nmap or SSH.
type Settings struct {
	Backend     string
	Interface   string
	Timeout     time.Duration
	NmapTargets []string
	SSH         SSHSettings
}
