package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is the root of every change subject
const SubjectPrefix = "taskmanager.changes"

// NATSConfig configures the NATS transport
type NATSConfig struct {
	URL        string
	Name       string
	BufferSize int
}

// NATSBroker carries changes over NATS core subjects of the form
// taskmanager.changes.<table>.<owner>. Column filters are applied on the
// subscriber side.
type NATSBroker struct {
	conn       *nats.Conn
	bufferSize int
	logger     *slog.Logger
}

// NewNATSBroker connects to the NATS server at cfg.URL.
func NewNATSBroker(cfg NATSConfig, logger *slog.Logger) (*NATSBroker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "taskmanager"
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}

	logger.Info("NATS push channel initialized", "url", cfg.URL)
	return &NATSBroker{conn: nc, bufferSize: bufferSize, logger: logger}, nil
}

// Subject returns the NATS subject for a table and owner.
func Subject(table, ownerID string) string {
	return SubjectPrefix + "." + table + "." + ownerID
}

// validSubjectToken rejects characters with meaning in NATS subjects
func validSubjectToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".*> \t\r\n")
}

func (b *NATSBroker) Publish(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validSubjectToken(change.Table) || !validSubjectToken(change.OwnerID) {
		return fmt.Errorf("change cannot be routed: table %q owner %q", change.Table, change.OwnerID)
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	if err := b.conn.Publish(Subject(change.Table, change.OwnerID), data); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return ErrStreamClosed
		}
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe creates a NATS subscription and flushes it to the server so that
// it is active when Subscribe returns.
func (b *NATSBroker) Subscribe(ctx context.Context, sub Subscription) (Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if !validSubjectToken(sub.Table) || !validSubjectToken(sub.OwnerID) {
		return nil, fmt.Errorf("subscription cannot be routed: %s", sub)
	}

	s := &natsStream{
		sub:  sub,
		ch:   make(chan Change, b.bufferSize),
		done: make(chan struct{}),
	}

	ns, err := b.conn.Subscribe(Subject(sub.Table, sub.OwnerID), func(m *nats.Msg) {
		var change Change
		if err := json.Unmarshal(m.Data, &change); err != nil {
			b.logger.Warn("dropping undecodable change", "subject", m.Subject, "error", err)
			return
		}
		if !sub.Matches(change) {
			return
		}
		s.deliver(change)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe %s: %w", sub, err)
	}

	if err := b.conn.FlushWithContext(ctx); err != nil {
		_ = ns.Unsubscribe()
		return nil, fmt.Errorf("failed to confirm subscription %s: %w", sub, err)
	}

	s.nsub = ns
	return s, nil
}

func (b *NATSBroker) Close() error {
	if err := b.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		b.conn.Close()
		return err
	}
	return nil
}

type natsStream struct {
	sub  Subscription
	nsub *nats.Subscription
	ch   chan Change
	done chan struct{}

	mu     sync.Mutex // Held while delivering; guards closed
	closed bool
	once   sync.Once
}

func (s *natsStream) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- change:
	case <-s.done:
	}
}

func (s *natsStream) Changes() <-chan Change { return s.ch }

func (s *natsStream) Close() error {
	var err error
	s.once.Do(func() {
		// Unblock a pending delivery before taking the lock
		close(s.done)

		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()

		if s.nsub != nil {
			err = s.nsub.Unsubscribe()
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				err = nil
			}
		}
	})
	return err
}
