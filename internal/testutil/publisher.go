package testutil

import (
	"context"
	"sync"

	"github.com/furkanakkurt/taskmanager/internal/events"
)

// RecordingPublisher keeps every published change. When Err is set every
// publish fails with it.
type RecordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
	Err     error
}

func (p *RecordingPublisher) Publish(ctx context.Context, change events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.changes = append(p.changes, change)
	return nil
}

// Changes returns the recorded changes in publish order
func (p *RecordingPublisher) Changes() []events.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Change(nil), p.changes...)
}

// Tables returns "table:KIND" for every recorded change
func (p *RecordingPublisher) Tables() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Table + ":" + string(c.Kind)
	}
	return out
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = nil
}
