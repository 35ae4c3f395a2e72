// Package detector implements the stateful scan comparison at the heart of
// the monitor: diffing the latest scan against the remembered signal map and
// emitting one change event per access point whose membership or signal
// changed.
package detector

import (
	"sort"

	"signalwarden/internal/domain"
)

// State maps access point identifier to the last observed signal strength.
// The detector never mutates a State it is given; UpdatedState returns a
// fresh map each cycle.
type State map[string]int

// Diff compares the current scan against the previous state and returns the
// change events for this cycle, at most one per identifier:
//
//   - identifier in current but not previous  -> Appeared
//   - signal rose by strictly more than jumpThreshold -> Strengthened
//   - identifier in previous but not current  -> Disappeared
//
// Appeared/Strengthened events come out in scan order; Disappeared events
// follow in sorted identifier order so the output is deterministic. Signals
// are clamped to [0,100] before comparison. When a scan reports the same
// identifier twice, the first occurrence decides the event.
func Diff(previous State, current []domain.Observation, jumpThreshold int) []domain.ChangeEvent {
	var events []domain.ChangeEvent

	seen := make(map[string]bool, len(current))
	for _, obs := range current {
		if seen[obs.Identifier] {
			continue
		}
		seen[obs.Identifier] = true

		signal := domain.ClampSignal(obs.Signal)
		old, known := previous[obs.Identifier]
		if !known {
			events = append(events, domain.ChangeEvent{
				Kind:        domain.EventAppeared,
				Identifier:  obs.Identifier,
				DisplayName: obs.DisplayName,
				Signal:      signal,
			})
			continue
		}
		if signal > old+jumpThreshold {
			events = append(events, domain.ChangeEvent{
				Kind:        domain.EventStrengthened,
				Identifier:  obs.Identifier,
				DisplayName: obs.DisplayName,
				OldSignal:   old,
				NewSignal:   signal,
			})
		}
	}

	var gone []string
	for id := range previous {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		events = append(events, domain.ChangeEvent{
			Kind:       domain.EventDisappeared,
			Identifier: id,
		})
	}

	return events
}

// UpdatedState returns the state after processing the current scan: exactly
// the identifiers observed this cycle with their clamped signals. Entries
// not re-observed are dropped; persisted history is the store's concern,
// not the live state's. When a scan reports the same identifier twice, the
// last reading wins.
func UpdatedState(previous State, current []domain.Observation) State {
	next := make(State, len(current))
	for _, obs := range current {
		next[obs.Identifier] = domain.ClampSignal(obs.Signal)
	}
	return next
}
