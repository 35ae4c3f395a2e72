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

// Nmcli scans via NetworkManager's terse CLI output. This is the default
// backend on Linux desktops; signal is already on the 0-100 scale.
type Nmcli struct {
	iface string
}

// NewNmcli creates the nmcli backend. iface may be empty to scan on
// whichever wifi device NetworkManager picks.
func NewNmcli(iface string) *Nmcli {
	return &Nmcli{iface: iface}
}

// Name returns the backend identifier.
func (n *Nmcli) Name() string { return "nmcli" }

// Scan runs one rescan and parses the visible access points.
func (n *Nmcli) Scan(ctx context.Context) ([]domain.Observation, error) {
	args := []string{"-t", "-f", "BSSID,SSID,SIGNAL", "device", "wifi", "list", "--rescan", "yes"}
	if n.iface != "" {
		args = append(args, "ifname", n.iface)
	}

	out, err := exec.CommandContext(ctx, "nmcli", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: nmcli: %v", domain.ErrScanFailed, err)
	}
	return parseNmcliOutput(string(out), time.Now()), nil
}

// parseNmcliOutput parses terse nmcli lines. Fields are colon separated
// and colons inside the BSSID are backslash-escaped:
//
//	AA\:BB\:CC\:DD\:EE\:FF:MyNetwork:72
func parseNmcliOutput(out string, now time.Time) []domain.Observation {
	var observations []domain.Observation
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := splitEscaped(line, ':')
		if len(fields) < 3 {
			continue
		}
		bssid := strings.ToUpper(fields[0])
		if bssid == "" {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(fields[len(fields)-1]))
		if err != nil {
			continue
		}
		// SSID may itself contain colons; rejoin the middle fields.
		ssid := strings.Join(fields[1:len(fields)-1], ":")

		observations = append(observations, domain.Observation{
			Identifier:  bssid,
			DisplayName: ssid,
			Signal:      domain.ClampSignal(signal),
			ObservedAt:  now,
		})
	}
	return observations
}

// splitEscaped splits on sep while honoring backslash escapes, unescaping
// the result.
func splitEscaped(s string, sep byte) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == sep:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}
