package domain

// EventKind tags the variant of a ChangeEvent.
type EventKind string

const (
	// EventAppeared - identifier present in the current scan but not in
	// the previous state.
	EventAppeared EventKind = "appeared"
	// EventStrengthened - signal rose by strictly more than the jump
	// threshold since the previous cycle.
	EventStrengthened EventKind = "strengthened"
	// EventDisappeared - identifier present in the previous state but
	// absent from the current scan.
	EventDisappeared EventKind = "disappeared"
)

// ChangeEvent describes one membership or signal change for one access
// point in one cycle. The detector emits at most one event per identifier
// per cycle. OldSignal/NewSignal are only meaningful for Strengthened;
// Signal only for Appeared.
type ChangeEvent struct {
	Kind        EventKind `json:"kind"`
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"display_name,omitempty"`
	Signal      int       `json:"signal,omitempty"`
	OldSignal   int       `json:"old_signal,omitempty"`
	NewSignal   int       `json:"new_signal,omitempty"`
}
