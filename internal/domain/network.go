package domain

import "time"

// KnownNetwork is the persisted record for one access point, keyed by its
// stable identifier. CustomLabel is empty until the user names the network.
type KnownNetwork struct {
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"display_name,omitempty"`
	CustomLabel string    `json:"custom_label,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	LastSignal  int       `json:"last_signal"`
}
