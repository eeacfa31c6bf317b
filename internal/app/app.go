package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/events"
	attachmentservice "github.com/furkanakkurt/taskmanager/internal/services/attachment"
	categoryservice "github.com/furkanakkurt/taskmanager/internal/services/category"
	projectservice "github.com/furkanakkurt/taskmanager/internal/services/project"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
	"github.com/furkanakkurt/taskmanager/internal/storage"
	"github.com/furkanakkurt/taskmanager/internal/sweeper"
)

// App holds all application services and provides dependency injection.
// This is the main application container that manages service lifecycles.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// Repository layer (direct database access)
	db   *sqlx.DB
	repo *database.Repository

	store storage.BlobStore

	// Event transport for live updates; nil when disabled
	broker events.Broker
	live   bool

	// Service layer (business logic)
	TaskService       taskservice.Service
	ProjectService    projectservice.Service
	CategoryService   categoryservice.Service
	AttachmentService attachmentservice.Service

	Sweeper *sweeper.Sweeper

	closers []func() error
}

// New creates a new App with all services initialized.
// This is the single entry point for creating the application container.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	options := &appConfig{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{cfg: cfg, logger: logger}

	if err := a.openDB(ctx, options.db); err != nil {
		return nil, err
	}
	if err := a.openStore(ctx, options.store); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openBroker(ctx, options.broker); err != nil {
		a.Close()
		return nil, err
	}

	repoOpts := []database.Option{
		database.WithClock(options.clock),
		database.WithLogger(logger),
	}
	if a.live {
		repoOpts = append(repoOpts, database.WithPublisher(a.broker, cfg.Events.PublishRetries))
	}
	a.repo = database.NewRepository(a.db, repoOpts...)

	attachments, err := attachmentservice.NewService(a.repo, a.store, attachmentservice.Config{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		URLMode:        attachmentservice.URLMode(cfg.Storage.URLMode),
		SignedURLTTL:   cfg.Storage.SignedURLTTL,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.AttachmentService = attachments
	a.TaskService = taskservice.NewService(a.repo, attachments)
	a.ProjectService = projectservice.NewService(a.repo)
	a.CategoryService = categoryservice.NewService(a.repo)
	a.Sweeper = sweeper.New(a.repo, a.store, cfg.Sweeper,
		sweeper.WithLogger(logger),
		sweeper.WithClock(options.clock))

	return a, nil
}

func (a *App) openDB(ctx context.Context, db *sqlx.DB) error {
	if db != nil {
		a.db = db
		return nil
	}

	db, err := database.Open(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	return nil
}

func (a *App) openStore(ctx context.Context, store storage.BlobStore) error {
	if store != nil {
		a.store = store
		return nil
	}

	switch a.cfg.Storage.Driver {
	case config.StorageMinio:
		s, err := storage.NewMinioStore(ctx, a.cfg.Storage.Minio)
		if err != nil {
			return fmt.Errorf("failed to open blob store: %w", err)
		}
		a.store = s
	default:
		s, err := storage.NewLocalStore(storage.LocalConfig{
			BasePath:   a.cfg.Storage.BasePath,
			BaseURL:    a.cfg.Storage.BaseURL,
			SigningKey: a.cfg.Storage.SigningKey,
		})
		if err != nil {
			return fmt.Errorf("failed to open blob store: %w", err)
		}
		a.store = s
	}
	return nil
}

// openBroker connects the configured transport. A daemon that is not
// running is not fatal: writes still succeed, only live updates are lost.
func (a *App) openBroker(ctx context.Context, broker events.Broker) error {
	if broker != nil {
		a.broker = broker
		a.live = true
		return nil
	}

	ev := a.cfg.Events
	switch ev.Transport {
	case config.TransportNone:
		return nil

	case config.TransportLocal:
		b := events.NewLocalBroker(100)
		a.broker = b
		a.closers = append(a.closers, b.Close)

	case config.TransportNATS:
		b, err := events.NewNATSBroker(events.NATSConfig{URL: ev.NATSURL, Name: "taskmanager"}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to connect event transport: %w", err)
		}
		a.broker = b
		a.closers = append(a.closers, b.Close)

	default:
		c := events.NewClient(ev.SocketPath,
			events.WithReconnect(ev.ReconnectRetries, ev.ReconnectDelay),
			events.WithClientLogger(a.logger))
		a.broker = c
		a.closers = append(a.closers, c.Close)
		if err := c.Connect(ctx); err != nil {
			a.logger.Info("daemon not reachable, live updates disabled", "socket", ev.SocketPath, "error", err)
			return nil
		}
	}

	a.live = true
	return nil
}

// Repo returns the underlying repository for direct database access.
func (a *App) Repo() *database.Repository {
	return a.repo
}

// Store returns the blob store attachments are kept in
func (a *App) Store() storage.BlobStore {
	return a.store
}

// Subscriber returns the event transport for opening change streams, or
// nil when events are disabled
func (a *App) Subscriber() events.Subscriber {
	if a.broker == nil {
		return nil
	}
	return a.broker
}

// Live reports whether committed changes are being published
func (a *App) Live() bool {
	return a.live
}

// Config returns the configuration the app was built from
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases what New opened, in reverse order.
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
