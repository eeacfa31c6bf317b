package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/furkanakkurt/taskmanager/internal/events"
)

// client represents a connected client to the daemon
type client struct {
	conn         net.Conn
	send         chan events.Message
	subscription *events.Subscription // nil until the client subscribes
	lastPong     time.Time
	mu           sync.Mutex // Protects subscription and lastPong
	closeOnce    sync.Once  // Ensures send channel is closed only once
}

// Server is the taskmanager change daemon. Writers publish committed changes
// to it and it fans them out to every client whose subscription matches.
type Server struct {
	socketPath      string
	listener        net.Listener
	clients         map[*client]bool
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	broadcast       chan events.Event
	metrics         *Metrics
	sequenceCounter atomic.Int64
	shutdownOnce    sync.Once
	logger          *slog.Logger

	broadcastBuffer  int
	clientBufferSize int
	pingInterval     time.Duration
	staleAfter       time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithBroadcastBuffer sets how many published events may queue before
// publishers see a full channel.
func WithBroadcastBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.broadcastBuffer = n
		}
	}
}

// WithClientBuffer sets the per-client send queue size.
func WithClientBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.clientBufferSize = n
		}
	}
}

// WithPingInterval sets how often clients are pinged. Clients that have not
// answered within three intervals are dropped.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pingInterval = d
			s.staleAfter = 3 * d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new daemon server listening on socketPath
func NewServer(socketPath string, opts ...Option) (*Server, error) {
	// Ensure the directory exists
	dir := filepath.Dir(socketPath)

	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}
	}

	// Remove stale socket file if it exists
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	s := &Server{
		socketPath:       socketPath,
		clients:          make(map[*client]bool),
		metrics:          NewMetrics(),
		logger:           slog.Default(),
		broadcastBuffer:  100,
		clientBufferSize: 10,
		pingInterval:     30 * time.Second,
		staleAfter:       90 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Create Unix domain socket listener
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.broadcast = make(chan events.Event, s.broadcastBuffer)
	return s, nil
}

// Metrics exposes the daemon counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start runs the daemon server
// It starts three main goroutines: accept, broadcast, and health monitoring
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("daemon starting", "socket", s.socketPath)

	// Create a combined context that cancels when either the daemon context or caller context is done
	combinedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-s.ctx.Done()
		cancel()
	}()

	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.acceptLoop(combinedCtx)
	}()

	go s.broadcastLoop(combinedCtx)
	go s.monitorHealth(combinedCtx)

	select {
	case <-combinedCtx.Done():
		s.logger.Info("daemon context cancelled, shutting down")
	case err := <-acceptErr:
		if err != nil {
			s.logger.Error("accept loop failed", "error", err)
		}
	}

	return s.Shutdown()
}

// acceptLoop accepts incoming client connections
func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// Set a deadline so we can check for context cancellation
		if ul, ok := s.listener.(*net.UnixListener); ok {
			if err := ul.SetDeadline(time.Now().Add(1 * time.Second)); err != nil {
				s.logger.Warn("failed to set listener deadline", "error", err)
			}
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept error: %w", err)
		}

		c := &client{
			conn:     conn,
			send:     make(chan events.Message, s.clientBufferSize),
			lastPong: time.Now(),
		}

		s.mu.Lock()
		s.clients[c] = true
		s.mu.Unlock()

		s.updateClientCount()
		s.logger.Debug("client connected", "clients", s.getClientCount())

		go s.handleClient(c)
		go s.clientWriter(c)
	}
}

// broadcastLoop stamps each published event with a sequence number and
// delivers it to every client whose subscription matches the change.
func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.broadcast:
			if !ok {
				return
			}
			if event.Change == nil {
				continue
			}
			event.SequenceID = s.sequenceCounter.Add(1)
			s.metrics.IncChangesBroadcast()

			s.mu.RLock()
			for c := range s.clients {
				c.mu.Lock()
				sub := c.subscription
				c.mu.Unlock()

				// Publisher-only connections never subscribe
				if sub == nil || !sub.Matches(*event.Change) {
					continue
				}

				msg := events.Message{
					Version: events.ProtocolVersion,
					Type:    events.MsgEvent,
					Event:   &event,
				}
				if !s.sendToClient(c, msg) {
					s.metrics.IncEventsDropped()
					s.logger.Warn("client send queue full, event dropped",
						"subscription", sub.String(),
						"sequence", event.SequenceID)
				}
			}
			s.mu.RUnlock()
		}
	}
}

// handleClient reads messages from a connected client
func (s *Server) handleClient(c *client) {
	defer func() {
		s.removeClient(c)
		s.logger.Debug("client disconnected", "clients", s.getClientCount())
	}()

	decoder := json.NewDecoder(c.conn)

	for {
		var msg events.Message

		if err := decoder.Decode(&msg); err != nil {
			return
		}

		if msg.Version != 0 && msg.Version != events.ProtocolVersion {
			s.logger.Warn("protocol version mismatch", "got", msg.Version, "want", events.ProtocolVersion)
		}

		switch msg.Type {
		case events.MsgPublish:
			if msg.Event == nil || msg.Event.Change == nil {
				continue
			}
			if !msg.Event.Change.Kind.Valid() {
				s.logger.Warn("ignoring change with unknown kind", "kind", msg.Event.Change.Kind)
				continue
			}
			s.metrics.IncEventsReceived()
			if err := s.Broadcast(*msg.Event); err != nil {
				s.logger.Warn("dropping published change", "error", err)
			}

		case events.MsgSubscribe:
			s.subscribe(c, msg.Subscribe)

		case events.MsgPong:
			c.mu.Lock()
			c.lastPong = time.Now()
			c.mu.Unlock()
		}
	}
}

// subscribe validates and records a client subscription, answering with
// subscribed or error.
func (s *Server) subscribe(c *client, sub *events.Subscription) {
	var err error
	if sub == nil {
		err = errors.New("missing subscription")
	} else {
		err = sub.Validate()
	}

	if err != nil {
		s.metrics.IncSubscriptionsRejected()
		s.trySend(c, events.Message{Version: events.ProtocolVersion, Type: events.MsgError, Error: err.Error()})
		return
	}

	accepted := *sub
	c.mu.Lock()
	c.subscription = &accepted
	c.mu.Unlock()

	s.logger.Debug("client subscribed", "subscription", accepted.String())
	s.trySend(c, events.Message{Version: events.ProtocolVersion, Type: events.MsgSubscribed, Subscribe: &accepted})
}

// clientWriter sends messages to a client
func (s *Server) clientWriter(c *client) {
	encoder := json.NewEncoder(c.conn)

	for msg := range c.send {
		if err := encoder.Encode(msg); err != nil {
			return
		}
	}
}

// monitorHealth sends ping messages and removes stale clients
func (s *Server) monitorHealth(ctx context.Context) {
	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			// Two phases: collect under the server lock, act outside it
			s.mu.RLock()
			clients := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				clients = append(clients, c)
			}
			s.mu.RUnlock()

			now := time.Now()
			ping := events.Message{
				Version: events.ProtocolVersion,
				Type:    events.MsgPing,
				Event:   &events.Event{Type: events.EventPing, Timestamp: now.UTC()},
			}

			for _, c := range clients {
				c.mu.Lock()
				lastPong := c.lastPong
				c.mu.Unlock()

				if now.Sub(lastPong) > s.staleAfter {
					s.logger.Info("removing stale client", "last_pong_ago", now.Sub(lastPong).String())
					s.removeClient(c)
					continue
				}
				if !s.trySend(c, ping) {
					s.logger.Debug("failed to send ping, queue full")
				}
			}
		}
	}
}

// Broadcast queues an event for fan-out (non-blocking)
func (s *Server) Broadcast(event events.Event) error {
	select {
	case <-s.ctx.Done():
		return events.ErrStreamClosed
	default:
	}

	select {
	case s.broadcast <- event:
		return nil
	default:
		return errors.New("broadcast channel full")
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down daemon")

		s.cancel()

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("error closing listener", "error", err)
			}
		}

		s.mu.Lock()
		for c := range s.clients {
			_ = c.conn.Close()
			c.closeOnce.Do(func() {
				close(c.send)
			})
		}
		s.clients = make(map[*client]bool)
		s.mu.Unlock()
		s.metrics.SetConnectedClients(0)

		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove socket file", "error", err)
		}
	})

	return nil
}

// Helper methods

func (s *Server) getClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) updateClientCount() {
	s.metrics.SetConnectedClients(int32(s.getClientCount()))
}

// removeClient safely removes a client from the server
func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	// Closing send under the server lock keeps broadcastLoop, which holds
	// the read lock while sending, from writing to a closed channel
	c.closeOnce.Do(func() {
		close(c.send)
	})
	s.mu.Unlock()

	_ = c.conn.Close()
	s.updateClientCount()
}

// sendToClient attempts to send a message to a client (non-blocking).
// The caller must hold s.mu and c must still be registered.
// Returns true if successful, false if the queue is full
func (s *Server) sendToClient(c *client, msg events.Message) bool {
	select {
	case c.send <- msg:
		s.metrics.IncEventsSent()
		return true
	default:
		return false
	}
}

// trySend is sendToClient for callers that do not hold s.mu. Messages to a
// client that has already been removed are discarded.
func (s *Server) trySend(c *client, msg events.Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.clients[c] {
		return false
	}
	return s.sendToClient(c, msg)
}
