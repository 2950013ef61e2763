// Package store holds all database operations behind a single Store type.
// The Store is constructed once and injected into the services that need it,
// so tests can substitute an in-memory fake.
package store

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store handles all database operations.
type Store struct {
	db     *sql.DB
	dbType string
}

// New creates a store backed by the given database handle.
// dbType is "postgres" or "sqlite" and controls placeholder syntax.
func New(db *sql.DB, dbType string) *Store {
	return &Store{db: db, dbType: dbType}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind converts ?-style placeholders to $n for PostgreSQL. Queries are
// written once in SQLite syntax and rebound at execution time.
func (s *Store) rebind(query string) string {
	if s.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// newID generates a row ID. IDs are generated application-side so the same
// queries work against both backends.
func newID() string {
	return uuid.NewString()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
