package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/events"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

// recordingPublisher keeps every published change in order
type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) all() []events.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Change(nil), p.changes...)
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = nil
}

// steppingClock advances by one second on every read so that rows created
// in sequence have distinct, ordered timestamps
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	repo  *Repository
	pub   *recordingPublisher
	clock *steppingClock
}

// setupTestRepo creates an in-memory database with migrations applied
// This is the unified test database setup used by all tests
func setupTestRepo(t *testing.T) testEnv {
	t.Helper()

	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { _ = db.Close() })

	pub := &recordingPublisher{}
	clock := &steppingClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}

	var seq int
	var idMu sync.Mutex
	repo := NewRepository(db,
		WithPublisher(pub, 1),
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			idMu.Lock()
			defer idMu.Unlock()
			seq++
			return fmt.Sprintf("00000000-0000-4000-8000-%012d", seq)
		}),
	)

	return testEnv{repo: repo, pub: pub, clock: clock}
}

func strPtr(s string) *string { return &s }
