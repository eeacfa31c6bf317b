// Package testutil holds fixtures shared by package tests: an in-memory
// gateway, fakes for the blob store and push channel, and command helpers.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/database"
)

// SetupTestDB opens a migrated in-memory sqlite database that is closed when
// the test ends
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}

// SetupTestRepo returns a repository over a fresh in-memory database with
// sequential UUID-shaped ids
func SetupTestRepo(t *testing.T, opts ...database.Option) *database.Repository {
	t.Helper()

	opts = append([]database.Option{database.WithIDGenerator(SequentialIDs())}, opts...)
	return database.NewRepository(SetupTestDB(t), opts...)
}

// SequentialIDs generates valid version 4 UUIDs in creation order
func SequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n.Add(1))
	}
}
