// Package announce provides the announcer boundary: rendered messages go
// out as speech and log lines. Everything here is best effort; a dead
// speech engine must never stall the monitoring loop.
package announce

import "log"

// Announcer emits one announcement. Failures are logged and swallowed.
type Announcer interface {
	SpeakAndLog(message string)
	Close() error
}

// Log announces to the process log only. Always available; used headless
// and underneath the speech announcer.
type Log struct{}

// NewLog creates the log-only announcer.
func NewLog() *Log {
	return &Log{}
}

// SpeakAndLog writes the announcement to the log.
func (l *Log) SpeakAndLog(message string) {
	log.Printf("ANNOUNCE: %s", message)
}

// Close is a no-op.
func (l *Log) Close() error { return nil }

// Multi fans one announcement out to several announcers in order.
type Multi struct {
	announcers []Announcer
}

// NewMulti creates a fan-out announcer.
func NewMulti(announcers ...Announcer) *Multi {
	return &Multi{announcers: announcers}
}

// SpeakAndLog forwards the message to every announcer.
func (m *Multi) SpeakAndLog(message string) {
	for _, a := range m.announcers {
		a.SpeakAndLog(message)
	}
}

// Close closes every announcer, keeping the first error.
func (m *Multi) Close() error {
	var first error
	for _, a := range m.announcers {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
