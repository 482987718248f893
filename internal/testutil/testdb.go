// Package testutil provides shared helpers for repository, sync and CLI
// tests: a migrated in-memory database and option-pattern fixtures.
package testutil

import (
	"database/sql"
	"testing"

	"rdburn/internal/db"
)

// NewTestDB returns a fully migrated in-memory cache database, closed
// automatically when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// NewTestUoW wraps a test database in a UnitOfWork.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
