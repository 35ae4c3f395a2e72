package scanner

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"signalwarden/internal/domain"
)

// Iw scans via `iw dev <iface> scan`. Used directly on machines without
// NetworkManager and reused by the SSH backend against remote routers.
// iw reports signal in dBm; readings are converted to the 0-100 scale.
type Iw struct {
	iface string
}

// NewIw creates the iw backend for a specific wireless interface.
func NewIw(iface string) *Iw {
	return &Iw{iface: iface}
}

// Name returns the backend identifier.
func (w *Iw) Name() string { return "iw" }

// Scan triggers a scan on the interface and parses the BSS dump.
// Needs CAP_NET_ADMIN or root on most systems.
func (w *Iw) Scan(ctx context.Context) ([]domain.Observation, error) {
	out, err := exec.CommandContext(ctx, "iw", "dev", w.iface, "scan").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: iw dev %s scan: %v", domain.ErrScanFailed, w.iface, err)
	}
	return parseIwOutput(string(out), time.Now()), nil
}

// parseIwOutput parses an iw BSS dump:
//
//	BSS aa:bb:cc:dd:ee:ff(on wlan0) -- associated
//	        signal: -55.00 dBm
//	        SSID: MyNetwork
//
// A BSS block is flushed when the next one starts or input ends. Hidden
// networks (no SSID line or an empty one) are kept, identified by BSSID.
func parseIwOutput(out string, now time.Time) []domain.Observation {
	var observations []domain.Observation

	var cur *domain.Observation
	flush := func() {
		if cur != nil {
			observations = append(observations, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(line, "BSS ") {
			flush()
			bssid := strings.TrimPrefix(line, "BSS ")
			if idx := strings.IndexAny(bssid, "( \t"); idx > 0 {
				bssid = bssid[:idx]
			}
			bssid = strings.TrimSpace(bssid)
			if bssid == "" {
				continue
			}
			cur = &domain.Observation{
				Identifier: strings.ToUpper(bssid),
				ObservedAt: now,
			}
			continue
		}

		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "signal:"):
			value := strings.TrimSpace(strings.TrimPrefix(trimmed, "signal:"))
			value = strings.TrimSpace(strings.TrimSuffix(value, "dBm"))
			if dbm, err := strconv.ParseFloat(value, 64); err == nil {
				cur.Signal = domain.DBmToPercent(dbm)
			}
		case strings.HasPrefix(trimmed, "SSID:"):
			cur.DisplayName = strings.TrimSpace(strings.TrimPrefix(trimmed, "SSID:"))
		}
	}
	flush()

	return observations
}
