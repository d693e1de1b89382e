// Package storage persists portal records in sqlite and exposes typed CRUD
// over them. Field-length caps are enforced here, before persistence, by
// truncation rather than rejection. Referential rules live in the schema and
// are surfaced as sentinel errors.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Field-length caps, in code points.
const (
	MaxChatMessageLength     = 4000
	MaxTaskTitleLength       = 200
	MaxTaskDescriptionLength = 4000
	MaxTodoLabelLength       = 500
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrCreatorReferenced rejects deleting a user who still owns tasks.
	ErrCreatorReferenced = errors.New("storage: user still referenced as task creator")
	// ErrUsernameTaken rejects duplicate account names.
	ErrUsernameTaken = errors.New("storage: username already taken")
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the portal database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("storage: db path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// truncate caps a string at max code points. Excess is dropped, not rejected.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
