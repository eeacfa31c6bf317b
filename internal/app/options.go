package app

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/storage"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	db     *sqlx.DB
	store  storage.BlobStore
	broker events.Broker
	clock  func() time.Time
	logger *slog.Logger
}

// WithDB uses an already opened database instead of the configured one.
// The caller keeps ownership; Close does not close it.
func WithDB(db *sqlx.DB) Option {
	return func(cfg *appConfig) {
		cfg.db = db
	}
}

// WithBlobStore replaces the configured blob store
func WithBlobStore(store storage.BlobStore) Option {
	return func(cfg *appConfig) {
		cfg.store = store
	}
}

// WithBroker replaces the configured event transport. The caller keeps
// ownership.
func WithBroker(b events.Broker) Option {
	return func(cfg *appConfig) {
		cfg.broker = b
	}
}

// WithClock sets the source of commit timestamps
func WithClock(clock func() time.Time) Option {
	return func(cfg *appConfig) {
		cfg.clock = clock
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}
