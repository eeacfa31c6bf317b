package database

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/events"
)

// Repository provides a unified interface to all data operations.
// It composes domain-specific repositories using struct embedding.
type Repository struct {
	*TaskRepo
	*ProjectRepo
	*CategoryRepo
	*AttachmentRepo

	db *sqlx.DB
}

// Option configures a Repository.
type Option func(*gateway)

// WithClock replaces the source of commit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(g *gateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithIDGenerator replaces the row id generator.
func WithIDGenerator(newID func() string) Option {
	return func(g *gateway) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// WithPublisher sets where committed changes are published, retrying each
// delivery up to retries times.
func WithPublisher(p events.Publisher, retries int) Option {
	return func(g *gateway) {
		g.publisher = p
		if retries > 0 {
			g.publishRetries = retries
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewRepository creates a new Repository instance wrapping the given database connection.
func NewRepository(db *sqlx.DB, opts ...Option) *Repository {
	g := &gateway{
		db:             db,
		clock:          time.Now,
		newID:          uuid.NewString,
		publishRetries: 3,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	return &Repository{
		TaskRepo:       &TaskRepo{g},
		ProjectRepo:    &ProjectRepo{g},
		CategoryRepo:   &CategoryRepo{g},
		AttachmentRepo: &AttachmentRepo{g},
		db:             db,
	}
}

// DB returns the underlying connection
func (r *Repository) DB() *sqlx.DB {
	return r.db
}
