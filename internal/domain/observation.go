package domain

import "time"

// Observation is a single access point sighting from one scan cycle.
// Identifier is the stable hardware address (BSSID or MAC); DisplayName is
// the advertised network name and may be empty for hidden networks.
type Observation struct {
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"display_name,omitempty"`
	Signal      int       `json:"signal"`
	ObservedAt  time.Time `json:"observed_at"`
}

// ClampSignal normalizes a raw signal reading to the 0-100 percent scale.
// Backends occasionally report out-of-range values (dBm conversions, driver
// quirks); comparisons always run on the clamped value.
func ClampSignal(signal int) int {
	if signal < 0 {
		return 0
	}
	if signal > 100 {
		return 100
	}
	return signal
}

// DBmToPercent converts a dBm reading (as produced by iw) to the 0-100
// scale using the common linear approximation: -100 dBm -> 0%, -50 dBm -> 100%.
func DBmToPercent(dbm float64) int {
	return ClampSignal(int(2 * (dbm + 100)))
}
