// Package testsupport builds in-memory stores for package tests.
package testsupport

import (
	"context"
	"testing"

	"github.com/andreyxaxa/Image-Vectorizer/migrations"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/sqlite"
)

// MustOpenSQLite returns a migrated private in-memory database closed at test cleanup.
func MustOpenSQLite(t testing.TB) *sqlite.SQLite {
	t.Helper()

	db, err := sqlite.New(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("sqlite.New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.SQLite()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	return db
}
