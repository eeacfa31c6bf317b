package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Client talks to the taskmanager daemon over its unix socket. Publishing
// shares one lazily dialled connection; every subscription gets its own
// connection so that closing one stream never affects another.
type Client struct {
	socketPath string

	// Timeouts
	writeTimeout time.Duration
	readTimeout  time.Duration

	// Reconnection configuration for streams. Zero retries means a dropped
	// stream simply ends.
	maxRetries int
	baseDelay  time.Duration

	logger *slog.Logger

	mu      sync.Mutex // Protects the publish connection and closed
	pubConn net.Conn
	pubEnc  *json.Encoder
	closed  bool

	streamsMu sync.Mutex
	streams   map[*socketStream]struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithReconnect makes streams redial the daemon up to maxRetries times with
// exponential backoff starting at baseDelay.
func WithReconnect(maxRetries int, baseDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithReadTimeout sets how long a stream waits for any message (the daemon
// pings every 30s) before treating the connection as dead.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WithClientLogger sets the logger used for connection diagnostics.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the daemon listening on socketPath. It does
// not connect; use Connect to check that the daemon is up.
func NewClient(socketPath string, opts ...ClientOption) *Client {
	c := &Client{
		socketPath:   socketPath,
		writeTimeout: 5 * time.Second,
		readTimeout:  60 * time.Second,
		baseDelay:    1 * time.Second,
		logger:       slog.Default(),
		streams:      make(map[*socketStream]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the publish connection, reporting whether the daemon is
// reachable.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrStreamClosed
	}
	if c.pubConn != nil {
		return nil
	}
	return c.dialPublisherLocked(ctx)
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to dial daemon socket: %w", ClassifyDaemonError(err))
	}
	return conn, nil
}

func (c *Client) dialPublisherLocked(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.pubConn = conn
	c.pubEnc = json.NewEncoder(conn)
	go c.drainPublisher(conn)
	return nil
}

// drainPublisher answers daemon pings on the publish connection and drops the
// connection once it fails, so the next Publish redials.
func (c *Client) drainPublisher(conn net.Conn) {
	decoder := json.NewDecoder(conn)
	for {
		var msg Message
		if err := decoder.Decode(&msg); err != nil {
			c.mu.Lock()
			if c.pubConn == conn {
				_ = conn.Close()
				c.pubConn = nil
				c.pubEnc = nil
			}
			c.mu.Unlock()
			return
		}

		if msg.Type == MsgPing {
			c.mu.Lock()
			if c.pubConn == conn {
				if err := c.writeLocked(conn, c.pubEnc, pongMessage()); err != nil && !isConnectionError(err) {
					c.logger.Debug("failed to send pong", "error", err)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Publish sends a committed change to the daemon for fan-out.
func (c *Client) Publish(ctx context.Context, change Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrStreamClosed
	}
	if c.pubConn == nil {
		if err := c.dialPublisherLocked(ctx); err != nil {
			return err
		}
	}

	msg := Message{
		Version: ProtocolVersion,
		Type:    MsgPublish,
		Event: &Event{
			Type:      EventChange,
			Change:    &change,
			Timestamp: time.Now().UTC(),
		},
	}
	if err := c.writeLocked(c.pubConn, c.pubEnc, msg); err != nil {
		_ = c.pubConn.Close()
		c.pubConn = nil
		c.pubEnc = nil
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (c *Client) writeLocked(conn net.Conn, enc *json.Encoder, msg Message) error {
	// Short write deadline to detect dead connections
	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return enc.Encode(msg)
}

// Subscribe opens a dedicated connection, registers sub with the daemon and
// waits for the acknowledgement before returning the stream.
func (c *Client) Subscribe(ctx context.Context, sub Subscription) (Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrStreamClosed
	}

	conn, dec, err := c.openSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &socketStream{
		client: c,
		sub:    sub,
		ch:     make(chan Change, 64),
		done:   make(chan struct{}),
		ctx:    streamCtx,
		cancel: cancel,
		conn:   conn,
		enc:    json.NewEncoder(conn),
	}

	c.streamsMu.Lock()
	c.streams[s] = struct{}{}
	c.streamsMu.Unlock()

	go s.run(dec)
	return s, nil
}

// openSubscription dials the daemon and completes the subscribe handshake.
func (c *Client) openSubscription(ctx context.Context, sub Subscription) (net.Conn, *json.Decoder, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, nil, err
	}
	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	fail := func(err error) (net.Conn, *json.Decoder, error) {
		if closeErr := conn.Close(); closeErr != nil {
			c.logger.Debug("error closing connection", "error", closeErr)
		}
		return nil, nil, err
	}

	if err := c.writeLocked(conn, encoder, Message{Version: ProtocolVersion, Type: MsgSubscribe, Subscribe: &sub}); err != nil {
		return fail(fmt.Errorf("failed to send subscription: %w", err))
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return fail(fmt.Errorf("failed to set read deadline: %w", err))
	}

	for {
		var msg Message
		if err := decoder.Decode(&msg); err != nil {
			return fail(fmt.Errorf("failed waiting for subscription ack: %w", err))
		}
		switch msg.Type {
		case MsgSubscribed:
			return conn, decoder, nil
		case MsgError:
			return fail(fmt.Errorf("daemon rejected subscription %s: %s", sub, msg.Error))
		case MsgPing:
			if err := c.writeLocked(conn, encoder, pongMessage()); err != nil {
				return fail(fmt.Errorf("failed to send pong: %w", err))
			}
		}
	}
}

// Close closes the publish connection and every open stream.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	var err error
	if c.pubConn != nil {
		err = c.pubConn.Close()
		c.pubConn = nil
		c.pubEnc = nil
	}
	c.mu.Unlock()

	c.streamsMu.Lock()
	streams := make([]*socketStream, 0, len(c.streams))
	for s := range c.streams {
		streams = append(streams, s)
	}
	c.streamsMu.Unlock()

	for _, s := range streams {
		_ = s.Close()
	}
	return err
}

func (c *Client) forget(s *socketStream) {
	c.streamsMu.Lock()
	delete(c.streams, s)
	c.streamsMu.Unlock()
}

// socketStream is one subscription connection.
type socketStream struct {
	client *Client
	sub    Subscription
	ch     chan Change
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex // Protects conn and enc
	conn net.Conn
	enc  *json.Encoder

	lastSequence int64
	closeOnce    sync.Once
}

func (s *socketStream) Changes() <-chan Change { return s.ch }

// Close stops delivery and waits for the reader goroutine to exit.
func (s *socketStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.conn != nil {
			err = s.conn.Close()
		}
		s.mu.Unlock()
		<-s.done
		s.client.forget(s)
	})
	if err != nil && isConnectionError(err) {
		return nil
	}
	return err
}

// run reads until the stream is closed or the connection is lost and cannot
// be re-established.
func (s *socketStream) run(dec *json.Decoder) {
	defer close(s.done)
	defer close(s.ch)

	for {
		err := s.readEvents(dec)
		if s.ctx.Err() != nil {
			return
		}

		log := s.client.logger.With("subscription", s.sub.String())
		if s.client.maxRetries <= 0 {
			log.Debug("stream ended", "error", err)
			return
		}

		log.Info("connection lost, reconnecting", "error", err)
		next, ok := s.reconnect()
		if !ok {
			log.Warn("failed to reconnect, giving up", "attempts", s.client.maxRetries)
			return
		}
		dec = next
	}
}

// readEvents forwards change events until the connection fails.
func (s *socketStream) readEvents(dec *json.Decoder) error {
	for {
		var msg Message

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return errors.New("connection closed")
		}
		// Detect hung connections; the daemon pings well within this window
		if err := conn.SetReadDeadline(time.Now().Add(s.client.readTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}

		switch msg.Type {
		case MsgEvent:
			if msg.Event == nil || msg.Event.Change == nil {
				continue
			}
			// Drop duplicates and replays
			if msg.Event.SequenceID <= s.lastSequence {
				continue
			}
			s.lastSequence = msg.Event.SequenceID
			select {
			case s.ch <- *msg.Event.Change:
			case <-s.ctx.Done():
				return s.ctx.Err()
			}

		case MsgPing:
			s.mu.Lock()
			err := s.client.writeLocked(s.conn, s.enc, pongMessage())
			s.mu.Unlock()
			if err != nil && !isConnectionError(err) {
				s.client.logger.Debug("failed to send pong", "error", err)
			}
		}
	}
}

// reconnect redials with exponential backoff: baseDelay, 2x, 4x, ...
func (s *socketStream) reconnect() (*json.Decoder, bool) {
	delay := s.client.baseDelay

	for i := 0; i < s.client.maxRetries; i++ {
		select {
		case <-s.ctx.Done():
			return nil, false
		case <-time.After(delay):
		}

		conn, dec, err := s.client.openSubscription(s.ctx, s.sub)
		if err != nil {
			s.client.logger.Debug("reconnection attempt failed",
				"attempt", i+1, "max_retries", s.client.maxRetries, "error", err)
			delay *= 2
			continue
		}

		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			_ = conn.Close()
			return nil, false
		}
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.conn = conn
		s.enc = json.NewEncoder(conn)
		s.mu.Unlock()

		// A restarted daemon starts numbering from one again
		s.lastSequence = 0
		s.client.logger.Info("reconnected to daemon", "attempt", i+1)
		return dec, true
	}
	return nil, false
}

func pongMessage() Message {
	return Message{Version: ProtocolVersion, Type: MsgPong, Event: &Event{Type: EventPong}}
}

// isConnectionError checks if an error is a network connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "use of closed network connection")
}
