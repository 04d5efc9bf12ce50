// Package store persists job orders, expenses and users in SQLite.
//
// Cost breakdowns are stored as JSON on the job row. They are read back
// through costing.Decode, so rows written in the legacy format keep working
// until the normalize command rewrites them.
package store

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is wrapped by errors caused by bad caller input.
	ErrInvalid = errors.New("invalid input")
)

const (
	timestampLayout = time.RFC3339Nano
	dateLayout      = "2006-01-02"
)

// Store is the SQLite-backed job order store and expense registry.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps an open, migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t
	}
	// Rows inserted by hand through CURRENT_TIMESTAMP.
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
