// Package policy turns change events into the sentences the announcer
// speaks. Pure string formatting; side effects belong to the announcer.
package policy

import (
	"fmt"

	"signalwarden/internal/domain"
)

// Policy holds the significance thresholds used when rendering messages.
type Policy struct {
	// CloseProximity is the signal percentage above which a newly appeared
	// access point is announced as very close by.
	CloseProximity int
}

// Default returns the policy with the stock thresholds.
func Default() Policy {
	return Policy{CloseProximity: 60}
}

// Render maps a change event to its announcement. label is the persisted
// custom label for the identifier, empty if none.
func (p Policy) Render(ev domain.ChangeEvent, label string) string {
	switch ev.Kind {
	case domain.EventAppeared:
		if label != "" {
			// Already named by the user on an earlier run: greet it
			// instead of treating it as unknown.
			return fmt.Sprintf("Detected %s", label)
		}
		if ev.Signal > p.CloseProximity {
			return fmt.Sprintf("New device detected very close by with signal strength %d%%", ev.Signal)
		}
		return fmt.Sprintf("New device detected with signal strength %d%%", ev.Signal)

	case domain.EventStrengthened:
		return fmt.Sprintf("Device %s moving closer. Signal increased from %d%% to %d%%",
			subject(ev, label), ev.OldSignal, ev.NewSignal)

	case domain.EventDisappeared:
		return fmt.Sprintf("Device %s moved out of range", subject(ev, label))
	}
	return ""
}

// subject picks the name used to refer to an access point: custom label,
// then advertised name, then hardware identifier.
func subject(ev domain.ChangeEvent, label string) string {
	if label != "" {
		return label
	}
	if ev.DisplayName != "" {
		return ev.DisplayName
	}
	return ev.Identifier
}
