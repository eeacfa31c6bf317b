// Package httpapi serves the task manager over HTTP: a JSON API under
// /api/v1, a Server-Sent Events change stream and signed blob downloads.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/services/attachment"
	"github.com/furkanakkurt/taskmanager/internal/services/category"
	"github.com/furkanakkurt/taskmanager/internal/services/project"
	"github.com/furkanakkurt/taskmanager/internal/services/task"
	"github.com/furkanakkurt/taskmanager/internal/storage"
)

// Config holds the listener settings
type Config struct {
	Address      string
	JWTSecret    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxUploadBytes bounds a multipart upload body
	MaxUploadBytes int64
}

// FileStore is a blob store that can serve its own signed URLs
type FileStore interface {
	Verify(path, expires, signature string) error
	Open(path string) (*os.File, storage.ObjectInfo, error)
}

// Deps are the services the API is served from. Subscriber and Files are
// optional; their routes answer 503 and 404 when nil.
type Deps struct {
	Tasks       task.Service
	Projects    project.Service
	Categories  category.Service
	Attachments attachment.Service
	Subscriber  events.Subscriber
	Files       FileStore
}

// Server is the HTTP front end
type Server struct {
	cfg    Config
	deps   Deps
	router *gin.Engine
	logger *slog.Logger
	auth   *Authenticator
}

// NewServer builds the router. A JWT secret is required.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("http.jwt_secret is required to serve the API")
	}
	if deps.Tasks == nil || deps.Projects == nil || deps.Categories == nil || deps.Attachments == nil {
		return nil, errors.New("httpapi: all services are required")
	}
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = attachment.DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "http"),
		auth:   NewAuthenticator(cfg.JWTSecret),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "live": s.deps.Subscriber != nil})
	})
	r.GET("/files/*path", s.serveFile)

	api := r.Group("/api/v1", s.auth.Middleware())
	{
		tasks := api.Group("/tasks")
		tasks.GET("", s.listTasks)
		tasks.POST("", s.createTask)
		tasks.GET("/:id", s.getTask)
		tasks.PATCH("/:id", s.updateTask)
		tasks.PUT("/:id/status", s.updateTaskStatus)
		tasks.DELETE("/:id", s.deleteTask)
		tasks.GET("/:id/attachments", s.listAttachments)
		tasks.POST("/:id/attachments", s.uploadAttachment)

		projects := api.Group("/projects")
		projects.GET("", s.listProjects)
		projects.POST("", s.createProject)
		projects.GET("/:id", s.getProject)
		projects.PATCH("/:id", s.updateProject)
		projects.DELETE("/:id", s.deleteProject)
		projects.GET("/:id/tasks", s.listProjectTasks)
		projects.GET("/:id/stats", s.projectStats)

		categories := api.Group("/categories")
		categories.GET("", s.listCategories)
		categories.POST("", s.createCategory)
		categories.GET("/:id", s.getCategory)
		categories.PATCH("/:id", s.updateCategory)
		categories.DELETE("/:id", s.deleteCategory)

		attachments := api.Group("/attachments")
		attachments.GET("/:id", s.getAttachment)
		attachments.GET("/:id/url", s.attachmentURL)
		attachments.DELETE("/:id", s.deleteAttachment)

		api.GET("/changes", s.streamChanges)
	}

	return r
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", s.cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}
