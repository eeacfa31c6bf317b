// Package cli holds helpers for running cobra commands against an
// in-memory application
package cli

import (
	"context"
	"testing"
	"time"

	"github.com/furkanakkurt/taskmanager/internal/app"
	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/sweeper"
	"github.com/furkanakkurt/taskmanager/internal/testutil"
)

// TestUser is the owner commands run as unless --user is given
const TestUser = "alice"

// SetupCLITest creates an App over an in-memory DB and a fake blob store.
// Events are disabled. The app is closed when the test ends.
func SetupCLITest(t *testing.T, opts ...app.Option) (*app.App, *testutil.FakeBlobStore) {
	t.Helper()

	store := testutil.NewFakeBlobStore()
	cfg := &config.Config{
		UserID:   TestUser,
		Database: database.Config{Driver: database.DriverSQLite, DSN: ":memory:"},
		Storage: config.StorageConfig{
			Driver:  config.StorageLocal,
			URLMode: "signed",
		},
		Events:  config.EventsConfig{Transport: config.TransportNone},
		Sweeper: sweeper.Config{Interval: time.Hour, GracePeriod: time.Hour},
	}

	opts = append([]app.Option{
		app.WithBlobStore(store),
		app.WithClock(testutil.NewFakeClock().Now),
	}, opts...)

	testApp, err := app.New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("Failed to create test app: %v", err)
	}
	t.Cleanup(func() { _ = testApp.Close() })

	return testApp, store
}
