// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/voxkit/websearch/pkg/profiles"

	_ "modernc.org/sqlite"
)

func init() {
	profiles.Backends.Register("sqlite", func(ctx context.Context, p profiles.BackendParams) (profiles.Store, error) {
		dsn := p.DSN
		if dsn == "" {
			dsn = "profiles.db"
		}
		return New(ctx, dsn)
	})
}

// Store is a SQLite-backed implementation of profiles.Store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path. Use ":memory:" for
// an ephemeral store.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS device_profiles (
		device_id TEXT PRIMARY KEY,
		engine TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("sqlite create tables: %w", err)
	}
	return nil
}

// Get retrieves a profile by device ID.
func (s *Store) Get(ctx context.Context, deviceID string) (*profiles.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT device_id, engine, language, updated_at FROM device_profiles WHERE device_id = ?`, deviceID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", deviceID, profiles.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get profile: %w", err)
	}
	return p, nil
}

// Put creates or replaces a profile.
func (s *Store) Put(ctx context.Context, p *profiles.Profile) error {
	if p.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO device_profiles (device_id, engine, language, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			engine = excluded.engine,
			language = excluded.language,
			updated_at = excluded.updated_at`,
		p.DeviceID, p.Engine, p.Language, updated.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite put profile: %w", err)
	}
	return nil
}

// Delete removes a profile.
func (s *Store) Delete(ctx context.Context, deviceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM device_profiles WHERE device_id = ?`, deviceID)
	if err != nil {
		return fmt.Errorf("sqlite delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %s: %w", deviceID, profiles.ErrNotFound)
	}
	return nil
}

// List returns all profiles ordered by device ID.
func (s *Store) List(ctx context.Context) ([]*profiles.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, engine, language, updated_at FROM device_profiles ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list profiles: %w", err)
	}
	defer rows.Close()

	var out []*profiles.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(sc scanner) (*profiles.Profile, error) {
	var (
		p       profiles.Profile
		updated int64
	)
	if err := sc.Scan(&p.DeviceID, &p.Engine, &p.Language, &updated); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}
