// Package sqlite implements the network store on a single SQLite table
// using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"signalwarden/internal/domain"

	_ "modernc.org/sqlite"
)

// Store implements repository.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Open or migration failure means the store is unavailable.
func New(path string) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(path, ":memory:") {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStorageUnavailable, err)
	}

	// Single-writer discipline: the monitor loop goroutine is the only
	// writer, and sqlite serializes the rest.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrStorageUnavailable, err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS networks (
		identifier   TEXT PRIMARY KEY,
		ssid         TEXT NOT NULL DEFAULT '',
		custom_label TEXT,
		first_seen   TIMESTAMP NOT NULL,
		last_seen    TIMESTAMP NOT NULL,
		last_signal  INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadAll reads the entire networks table.
func (s *Store) LoadAll(ctx context.Context) (map[string]*domain.KnownNetwork, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, ssid, custom_label, first_seen, last_seen, last_signal
		FROM networks
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query networks: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	networks := make(map[string]*domain.KnownNetwork)
	for rows.Next() {
		var (
			n     domain.KnownNetwork
			label sql.NullString
		)
		if err := rows.Scan(&n.Identifier, &n.DisplayName, &label, &n.FirstSeen, &n.LastSeen, &n.LastSignal); err != nil {
			return nil, fmt.Errorf("scan network: %w", err)
		}
		if label.Valid {
			n.CustomLabel = label.String
		}
		networks[n.Identifier] = &n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate networks: %w", err)
	}
	return networks, nil
}

// Upsert inserts a new record (first_seen = now) or refreshes an existing
// one. The custom label is untouched on update; last_seen only moves
// forward, and an empty ssid (network currently hiding its name) does not
// erase a remembered one.
func (s *Store) Upsert(ctx context.Context, obs domain.Observation, now time.Time) error {
	signal := domain.ClampSignal(obs.Signal)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO networks (identifier, ssid, first_seen, last_seen, last_signal)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			ssid        = CASE WHEN excluded.ssid = '' THEN ssid ELSE excluded.ssid END,
			last_seen   = MAX(last_seen, excluded.last_seen),
			last_signal = excluded.last_signal
	`, obs.Identifier, obs.DisplayName, now, now, signal)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStorageUnavailable, obs.Identifier, err)
	}
	return nil
}

// SetLabel stores the user-assigned label for an identifier. The row must
// already exist (the loop upserts the observation before prompting).
func (s *Store) SetLabel(ctx context.Context, identifier, label string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE networks SET custom_label = ? WHERE identifier = ?
	`, label, identifier)
	if err != nil {
		return fmt.Errorf("%w: set label for %s: %v", domain.ErrStorageUnavailable, identifier, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("set label: unknown identifier %s", identifier)
	}
	return nil
}

// GetLabel returns the custom label for an identifier, if one is stored.
func (s *Store) GetLabel(ctx context.Context, identifier string) (string, bool, error) {
	var label sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT custom_label FROM networks WHERE identifier = ?
	`, identifier).Scan(&label)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get label for %s: %v", domain.ErrStorageUnavailable, identifier, err)
	}
	if !label.Valid || label.String == "" {
		return "", false, nil
	}
	return label.String, true, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
