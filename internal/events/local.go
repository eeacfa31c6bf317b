package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// LocalBroker is an in-process push channel. It fans changes out to
// subscribed streams without a daemon, for single-process use (the HTTP
// server) and tests.
type LocalBroker struct {
	mu         sync.RWMutex
	streams    map[*localStream]struct{}
	closed     bool
	bufferSize int
	dropped    atomic.Int64
}

// NewLocalBroker creates a broker whose streams buffer up to bufferSize
// changes. A slow stream whose buffer is full misses changes rather than
// blocking the publisher.
func NewLocalBroker(bufferSize int) *LocalBroker {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &LocalBroker{
		streams:    make(map[*localStream]struct{}),
		bufferSize: bufferSize,
	}
}

// Publish delivers change to every matching stream.
func (b *LocalBroker) Publish(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrStreamClosed
	}

	for s := range b.streams {
		if !s.sub.Matches(change) {
			continue
		}
		select {
		case s.ch <- change:
		default:
			b.dropped.Add(1)
			slog.Warn("stream buffer full, change dropped",
				"subscription", s.sub.String(),
				"table", change.Table,
				"kind", change.Kind)
		}
	}
	return nil
}

// Subscribe registers a new stream. Registration is synchronous, so the
// subscription is active as soon as Subscribe returns.
func (b *LocalBroker) Subscribe(ctx context.Context, sub Subscription) (Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrStreamClosed
	}

	s := &localStream{broker: b, sub: sub, ch: make(chan Change, b.bufferSize)}
	b.streams[s] = struct{}{}
	return s, nil
}

// Dropped returns how many changes were discarded because a stream was full.
func (b *LocalBroker) Dropped() int64 {
	return b.dropped.Load()
}

// Close ends every open stream.
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for s := range b.streams {
		s.closeLocked()
	}
	b.streams = make(map[*localStream]struct{})
	return nil
}

type localStream struct {
	broker    *LocalBroker
	sub       Subscription
	ch        chan Change
	closeOnce sync.Once
}

func (s *localStream) Changes() <-chan Change { return s.ch }

func (s *localStream) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	delete(s.broker.streams, s)
	s.closeLocked()
	return nil
}

// closeLocked must be called with the broker's write lock held so that no
// publisher is sending on ch.
func (s *localStream) closeLocked() {
	s.closeOnce.Do(func() {
		close(s.ch)
	})
}
