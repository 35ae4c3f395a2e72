package monitor

import (
	"time"

	"signalwarden/internal/domain"
)

// EventType defines the type of monitoring event
type EventType string

const (
	EventAnnouncement  EventType = "announcement"
	EventCycleComplete EventType = "cycle_complete"
	EventScanFailed    EventType = "scan_failed"
	EventNetworkNamed  EventType = "network_named"
)

// Event represents an event that occurred in the monitoring loop
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Announcement is the payload for announcement events.
type Announcement struct {
	Message string             `json:"message"`
	Change  domain.ChangeEvent `json:"change"`
}

// CycleStats is the payload for cycle-complete events.
type CycleStats struct {
	Observed int           `json:"observed"`
	Changes  int           `json:"changes"`
	Duration time.Duration `json:"duration"`
}

// EventBus allows publishing and subscribing to monitoring events
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events. Subscribe before Run
// starts; the bus itself is not locked.
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
