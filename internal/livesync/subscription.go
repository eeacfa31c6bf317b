package livesync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/furkanakkurt/taskmanager/internal/events"
)

// State of a subscription handle
type State int32

const (
	Unsubscribed State = iota
	Subscribing
	Active
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Active:
		return "active"
	default:
		return "unsubscribed"
	}
}

// Subscription is the handle of one watched view. It moves from Subscribing
// to Active once the push channel confirms the subscription, and to
// Unsubscribed when it is closed or the stream ends. Close is the only way
// to stop it and may be called any number of times.
type Subscription struct {
	target events.Subscription
	state  atomic.Int32
	cancel context.CancelFunc
	stream events.Stream
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (s *Subscription) State() State { return State(s.state.Load()) }

// Done is closed once the handle is Unsubscribed and no more events will
// be applied
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) Target() events.Subscription { return s.target }

// Close stops delivery and waits until the apply loop has exited
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.stream != nil {
			s.closeErr = s.stream.Close()
		}
		<-s.done
	})
	return s.closeErr
}

// WatchOption configures Watch
type WatchOption[T Entity] func(*watchConfig[T])

type watchConfig[T Entity] struct {
	onEvent func(Event[T])
	logger  *slog.Logger
}

// OnEvent is called after each pushed event that changed the collection
func OnEvent[T Entity](fn func(Event[T])) WatchOption[T] {
	return func(c *watchConfig[T]) { c.onEvent = fn }
}

func WithLogger[T Entity](l *slog.Logger) WatchOption[T] {
	return func(c *watchConfig[T]) {
		if l != nil {
			c.logger = l
		}
	}
}

// Watch subscribes to target and applies every pushed change to coll, in
// delivery order, until the returned handle is closed, ctx is done or the
// stream ends. A failed subscribe leaves nothing running.
func Watch[T Entity](ctx context.Context, sub events.Subscriber, target events.Subscription, coll *Collection[T], opts ...WatchOption[T]) (*Subscription, error) {
	cfg := watchConfig[T]{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{target: target, cancel: cancel, done: make(chan struct{})}
	s.state.Store(int32(Subscribing))

	stream, err := sub.Subscribe(ctx, target)
	if err != nil {
		cancel()
		s.state.Store(int32(Unsubscribed))
		close(s.done)
		return nil, err
	}
	s.stream = stream
	s.state.Store(int32(Active))

	log := cfg.logger.With("subscription", target.String())
	go func() {
		defer close(s.done)
		defer s.state.Store(int32(Unsubscribed))

		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-stream.Changes():
				if !ok {
					log.Debug("change stream ended")
					return
				}
				ev, err := Decode[T](change)
				if err != nil {
					log.Warn("dropping undecodable change", "error", err)
					continue
				}
				if coll.Apply(ev) && cfg.onEvent != nil {
					cfg.onEvent(ev)
				}
			}
		}
	}()

	return s, nil
}
