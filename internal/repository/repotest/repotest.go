// Package repotest opens throwaway sqlite databases for package tests.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/plantcare/plantcare-api/internal/repository"
)

// NewDB returns a migrated sqlite database stored under t.TempDir(). It is
// closed when the test ends.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "plantcare.db")
	db, err := repository.NewDB(repository.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("NewDB() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := repository.Migrate(context.Background(), db, repository.DriverSQLite); err != nil {
		t.Fatalf("Migrate() unexpected error: %v", err)
	}

	return db
}
