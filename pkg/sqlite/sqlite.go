// Package sqlite is the embedded counterpart of pkg/postgres: a database/sql handle on
// modernc.org/sqlite with a squirrel builder, ctx-scoped transactions and goose migrations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"

	_defaultBusyTimeout = 5 * time.Second
)

type SQLite struct {
	busyTimeout time.Duration

	Builder squirrel.StatementBuilderType
	DB      *sql.DB
}

func New(path string, opts ...Option) (*SQLite, error) {
	s := &SQLite{
		busyTimeout: _defaultBusyTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("SQLite - New - os.MkdirAll: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("SQLite - New - sql.Open: %w", err)
	}

	// a single connection keeps one in-memory database per handle and avoids "database is locked"
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("SQLite - New - db.Ping: %w", err)
	}

	s.DB = db
	s.Builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return s, nil
}

// dsn carries the pragmas so the driver applies them to every new connection.
func (s *SQLite) dsn(path string) string {
	pragmas := []string{
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()),
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}

	return path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Migrate applies the goose migrations found at the root of fsys.
func (s *SQLite) Migrate(ctx context.Context, fsys fs.FS) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.DB, fsys)
	if err != nil {
		return fmt.Errorf("SQLite - Migrate - goose.NewProvider: %w", err)
	}

	_, err = provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("SQLite - Migrate - provider.Up: %w", err)
	}

	return nil
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}
