package scanner

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"signalwarden/internal/domain"
)

// Nmap is the LAN-presence fallback for hosts without a wifi interface:
// a ping/ARP sweep of the configured subnets. It cannot see 802.11
// beacons, so "presence" means answering on the local network; the
// identifier is the MAC address when the sweep runs with ARP privileges
// and the IP otherwise. Strength is derived from the smoothed RTT, which
// is a rough proximity proxy at best.
type Nmap struct {
	targets []string
}

// NewNmap creates the presence sweep backend for the given CIDR targets.
func NewNmap(targets []string) *Nmap {
	return &Nmap{targets: targets}
}

// Name returns the backend identifier.
func (n *Nmap) Name() string { return "nmap" }

// Scan runs one ping sweep across all targets.
func (n *Nmap) Scan(ctx context.Context) ([]domain.Observation, error) {
	s, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(n.targets...),
		nmap.WithPingScan(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create nmap scanner: %v", domain.ErrScanFailed, err)
	}

	result, warnings, err := s.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: nmap sweep: %v", domain.ErrScanFailed, err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Printf("nmap sweep warnings: %v", *warnings)
	}

	now := time.Now()
	var observations []domain.Observation
	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}

		var ip, mac string
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4", "ipv6":
				if ip == "" {
					ip = addr.Addr
				}
			case "mac":
				mac = strings.ToUpper(addr.Addr)
			}
		}

		identifier := mac
		if identifier == "" {
			identifier = ip
		}
		if identifier == "" {
			continue
		}

		name := ""
		if len(host.Hostnames) > 0 {
			name = host.Hostnames[0].Name
		}

		observations = append(observations, domain.Observation{
			Identifier:  identifier,
			DisplayName: name,
			Signal:      srttToSignal(host.Times.SRTT),
			ObservedAt:  now,
		})
	}

	return observations, nil
}

// srttToSignal maps nmap's smoothed RTT (microseconds) onto the 0-100
// scale: sub-millisecond answers read as full strength, each extra
// millisecond costs 10 points, floor 10 for any host that answered.
func srttToSignal(srtt string) int {
	micros, err := strconv.Atoi(strings.TrimSpace(srtt))
	if err != nil || micros <= 0 {
		return 50
	}
	signal := 100 - micros/100
	if signal < 10 {
		signal = 10
	}
	return domain.ClampSignal(signal)
}
