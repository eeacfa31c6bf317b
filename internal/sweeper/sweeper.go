// Package sweeper removes blobs that no attachment record points at. Such
// blobs are left behind when an upload's record insert and its compensating
// delete both fail.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/furkanakkurt/taskmanager/internal/storage"
)

// Config controls the schedule. Blobs younger than GracePeriod are kept so
// that an upload whose record is still being written is not removed.
type Config struct {
	Disabled    bool          `yaml:"disabled" env:"TASKMANAGER_SWEEPER_DISABLED"`
	Interval    time.Duration `yaml:"interval" env:"TASKMANAGER_SWEEPER_INTERVAL" env-default:"1h"`
	GracePeriod time.Duration `yaml:"grace_period" env:"TASKMANAGER_SWEEPER_GRACE" env-default:"24h"`
}

// Result summarizes one sweep
type Result struct {
	Scanned int
	Orphans int
	Removed int
	Failed  int
}

type pathSource interface {
	AttachmentPaths(ctx context.Context) (map[string]struct{}, error)
}

type Option func(*Sweeper)

func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

type Sweeper struct {
	paths  pathSource
	store  storage.BlobStore
	cfg    Config
	clock  func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

func New(paths pathSource, store storage.BlobStore, cfg Config, opts ...Option) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = 0
	}
	s := &Sweeper{
		paths:  paths,
		store:  store,
		cfg:    cfg,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sweeper")
	return s
}

// Sweep makes one pass. Blobs are listed before records are read, so a
// blob whose record lands in between is still seen as referenced.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result

	blobs, err := s.store.List(ctx, "")
	if err != nil {
		return res, fmt.Errorf("failed to list blobs: %w", err)
	}
	referenced, err := s.paths.AttachmentPaths(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load attachment paths: %w", err)
	}

	cutoff := s.clock().Add(-s.cfg.GracePeriod)
	res.Scanned = len(blobs)
	for _, blob := range blobs {
		if _, ok := referenced[blob.Path]; ok {
			continue
		}
		if blob.ModTime.After(cutoff) {
			continue
		}
		res.Orphans++

		if err := s.store.Remove(ctx, blob.Path); err != nil {
			res.Failed++
			s.logger.Warn("failed to remove orphaned blob", "path", blob.Path, "error", err)
			continue
		}
		res.Removed++
		s.logger.Info("removed orphaned blob", "path", blob.Path, "size", blob.Size)
	}
	return res, nil
}

// Start runs Sweep every interval until Stop is called or ctx is done. A
// sweep that is still running when the next one is due is not overlapped.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return fmt.Errorf("sweeper already running")
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(s.cfg.Interval).Do(func() {
		res, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("sweep failed", "error", err)
			return
		}
		s.logger.Debug("sweep finished", "scanned", res.Scanned, "removed", res.Removed, "failed", res.Failed)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	scheduler.StartAsync()
	s.scheduler = scheduler
	s.logger.Info("sweeper started", "interval", s.cfg.Interval, "grace_period", s.cfg.GracePeriod)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule. It is safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}
	s.scheduler.Stop()
	s.scheduler = nil
	s.logger.Info("sweeper stopped")
}

// Running reports whether a schedule is active
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler != nil
}
