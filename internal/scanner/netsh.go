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

// Netsh scans via `netsh wlan show networks mode=bssid` on Windows.
// Each SSID block lists one or more BSSID sub-blocks with percent signal.
type Netsh struct{}

// NewNetsh creates the netsh backend.
func NewNetsh() *Netsh {
	return &Netsh{}
}

// Name returns the backend identifier.
func (n *Netsh) Name() string { return "netsh" }

// Scan lists visible networks from the wlan autoconfig service.
func (n *Netsh) Scan(ctx context.Context) ([]domain.Observation, error) {
	out, err := exec.CommandContext(ctx, "netsh", "wlan", "show", "networks", "mode=bssid").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: netsh wlan show networks: %v", domain.ErrScanFailed, err)
	}
	return parseNetshOutput(string(out), time.Now()), nil
}

// parseNetshOutput parses netsh output of the form:
//
//	SSID 1 : MyNetwork
//	    ...
//	    BSSID 1                 : aa:bb:cc:dd:ee:ff
//	         Signal             : 72%
//
// Observations are keyed by BSSID; the SSID in effect when a BSSID line
// appears becomes its display name.
func parseNetshOutput(out string, now time.Time) []domain.Observation {
	var observations []domain.Observation

	currentSSID := ""
	var cur *domain.Observation
	flush := func() {
		if cur != nil {
			observations = append(observations, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		key, value, ok := splitNetshField(trimmed)
		if !ok {
			continue
		}

		switch {
		case strings.HasPrefix(key, "SSID") && !strings.HasPrefix(key, "BSSID"):
			flush()
			currentSSID = value
		case strings.HasPrefix(key, "BSSID"):
			flush()
			if value == "" {
				continue
			}
			cur = &domain.Observation{
				Identifier:  strings.ToUpper(value),
				DisplayName: currentSSID,
				ObservedAt:  now,
			}
		case key == "Signal" && cur != nil:
			value = strings.TrimSuffix(value, "%")
			if signal, err := strconv.Atoi(value); err == nil {
				cur.Signal = domain.ClampSignal(signal)
			}
		}
	}
	flush()

	return observations
}

// splitNetshField splits a "Key : value" netsh line.
func splitNetshField(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
