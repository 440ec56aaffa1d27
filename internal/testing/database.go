// Package testing holds test fixtures shared across qlint packages.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/teranos/qlint/db"
	"github.com/teranos/qlint/storage"
)

// CreateTestDB creates a migrated in-memory SQLite test database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenWithMigrations(db.MemoryPath, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// CreateTestStore returns a store over a fresh in-memory database holding f.
// A nil fixture leaves the store empty.
func CreateTestStore(t *testing.T, f *storage.Fixture) *storage.Store {
	t.Helper()

	s := storage.NewStore(CreateTestDB(t), zaptest.NewLogger(t).Sugar())
	if f != nil {
		if _, err := s.Import(f); err != nil {
			t.Fatalf("Failed to import fixture: %v", err)
		}
	}
	return s
}

// CreateStorageFile writes f into a storage database under t.TempDir() and
// returns its path, for code that opens storage itself.
func CreateStorageFile(t *testing.T, f *storage.Fixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "storage.db")
	s, err := storage.Open(path, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer s.Close()

	if f != nil {
		if _, err := s.Import(f); err != nil {
			t.Fatalf("Failed to import fixture: %v", err)
		}
	}
	return path
}
