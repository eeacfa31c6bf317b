package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/furkanakkurt/taskmanager/internal/daemon"
	"github.com/furkanakkurt/taskmanager/internal/events"
)

// GetTestSocketPath returns a socket path inside a per-test temp dir
func GetTestSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "events.sock")
}

// SetupTestDaemon starts a push-channel daemon on a temporary socket and
// waits until it accepts connections. It is shut down when the test ends.
func SetupTestDaemon(t *testing.T, opts ...daemon.Option) (*daemon.Server, string) {
	t.Helper()

	socketPath := GetTestSocketPath(t)

	server, err := daemon.NewServer(socketPath, opts...)
	if err != nil {
		t.Fatalf("Failed to create test daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		if err := server.Shutdown(); err != nil {
			t.Logf("Warning: daemon shutdown error during cleanup: %v", err)
		}
	})

	go func() {
		if err := server.Start(ctx); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()

	// Wait for socket to be created (max 2 seconds)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(socketPath); err == nil {
			return server, socketPath
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("Timeout waiting for daemon socket to be created")
	return nil, ""
}

// SetupTestClient connects a socket client to the daemon at socketPath
func SetupTestClient(t *testing.T, socketPath string) *events.Client {
	t.Helper()

	client := events.NewClient(socketPath)
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("Warning: client close error during cleanup: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect test client: %v", err)
	}
	return client
}
