// Package repository defines the data access interface for the persisted
// network store. The actual implementation is in the sqlite subpackage.
//
// The store is a single table keyed by access point identifier. It is
// append-and-update only: records are created on first observation, touched
// on every later one, and never deleted automatically. Store failures must
// never crash the monitoring loop; the loop degrades to cache-only operation
// and keeps announcing.
package repository

import (
	"context"
	"time"

	"signalwarden/internal/domain"
)

// Store is the persisted identifier -> KnownNetwork mapping.
type Store interface {
	// LoadAll reads the entire table, typically once at process start.
	LoadAll(ctx context.Context) (map[string]*domain.KnownNetwork, error)

	// Upsert inserts a record for a newly observed access point
	// (first_seen = now) or updates display name, last_seen and
	// last_signal for a known one. Idempotent under repeated calls
	// with identical data.
	Upsert(ctx context.Context, obs domain.Observation, now time.Time) error

	// SetLabel stores the user-assigned label for an identifier.
	SetLabel(ctx context.Context, identifier, label string) error

	// GetLabel returns the custom label for an identifier, with a
	// presence flag.
	GetLabel(ctx context.Context, identifier string) (string, bool, error)

	// Close releases resources.
	Close() error
}
