package scanner

import (
	"fmt"
	"log"
	"os/exec"

	"signalwarden/internal/domain"
)

// Detect negotiates the scan backend at startup. An explicit backend that
// cannot run is fatal; "auto" walks the candidates and returns
// domain.ErrNoScanBackend only when nothing on this host can scan.
func Detect(settings Settings) (Scanner, error) {
	switch settings.Backend {
	case "", "auto":
		return autodetect(settings)
	case "nmcli":
		return requireBinary("nmcli", NewNmcli(settings.Interface))
	case "iw":
		if settings.Interface == "" {
			return nil, fmt.Errorf("%w: iw backend needs scan.interface", domain.ErrNoScanBackend)
		}
		return requireBinary("iw", NewIw(settings.Interface))
	case "netsh":
		return requireBinary("netsh", NewNetsh())
	case "nmap":
		if len(settings.NmapTargets) == 0 {
			return nil, fmt.Errorf("%w: nmap backend needs scan.nmap_targets", domain.ErrNoScanBackend)
		}
		return NewNmap(settings.NmapTargets), nil
	case "ssh":
		if settings.SSH.Host == "" {
			return nil, fmt.Errorf("%w: ssh backend needs scan.ssh.host", domain.ErrNoScanBackend)
		}
		return NewSSH(settings.SSH, settings.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", domain.ErrNoScanBackend, settings.Backend)
	}
}

func autodetect(settings Settings) (Scanner, error) {
	if _, err := exec.LookPath("nmcli"); err == nil {
		log.Printf("Scan backend: nmcli")
		return NewNmcli(settings.Interface), nil
	}
	if settings.Interface != "" {
		if _, err := exec.LookPath("iw"); err == nil {
			log.Printf("Scan backend: iw (interface=%s)", settings.Interface)
			return NewIw(settings.Interface), nil
		}
	}
	if _, err := exec.LookPath("netsh"); err == nil {
		log.Printf("Scan backend: netsh")
		return NewNetsh(), nil
	}
	if settings.SSH.Host != "" {
		log.Printf("Scan backend: ssh (%s@%s)", settings.SSH.User, settings.SSH.Host)
		return NewSSH(settings.SSH, settings.Timeout), nil
	}
	if len(settings.NmapTargets) > 0 {
		if _, err := exec.LookPath("nmap"); err == nil {
			log.Printf("Scan backend: nmap presence sweep (targets=%v)", settings.NmapTargets)
			return NewNmap(settings.NmapTargets), nil
		}
	}
	return nil, fmt.Errorf("%w: no wireless tool on PATH and no nmap/ssh fallback configured", domain.ErrNoScanBackend)
}

func requireBinary(name string, s Scanner) (Scanner, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s not found in PATH", domain.ErrNoScanBackend, name)
	}
	return s, nil
}
