// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal persists an audit log of function executions and shell
// commands in SQLite.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record kinds.
const (
	KindFunction = "function"
	KindShell    = "shell"
)

// Record statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record is one journal entry.
type Record struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Filter narrows a List query. Zero fields are ignored.
type Filter struct {
	Kind    string
	Subject string
	Status  string
	Limit   int
}

// Recorder is the narrow write interface the engine and the shell manager
// record through. Callers treat a nil Recorder as journaling disabled.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Store persists records in SQLite.
type Store struct {
	db *sql.DB
}

// New wraps an open database and ensures the schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one entry. A missing id is filled with a fresh UUID.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ergon_journal (
			id, kind, subject, status, error_code, duration_ms, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Kind,
		rec.Subject,
		rec.Status,
		rec.ErrorCode,
		rec.DurationMS,
		normalizeTime(rec.StartedAt),
		normalizeTime(rec.FinishedAt),
	)
	return err
}

// List returns records matching the filter, most recent first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `
		SELECT id, kind, subject, status, error_code, duration_ms, started_at, finished_at
		FROM ergon_journal
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.Kind != "" {
		addFilter("kind = ?", filter.Kind)
	}
	if filter.Subject != "" {
		addFilter("subject = ?", filter.Subject)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			started  sql.NullTime
			finished sql.NullTime
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Kind,
			&rec.Subject,
			&rec.Status,
			&rec.ErrorCode,
			&rec.DurationMS,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		if started.Valid {
			rec.StartedAt = started.Time
		}
		if finished.Valid {
			rec.FinishedAt = finished.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ergon_journal (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			subject TEXT NOT NULL,
			status TEXT NOT NULL,
			error_code TEXT,
			duration_ms INTEGER NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ergon_journal_kind ON ergon_journal(kind);
		CREATE INDEX IF NOT EXISTS idx_ergon_journal_subject ON ergon_journal(subject);
		CREATE INDEX IF NOT EXISTS idx_ergon_journal_status ON ergon_journal(status);
	`)
	return err
}

// normalizeTime keeps stored timestamps in UTC.
func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}

var _ Recorder = (*Store)(nil)
