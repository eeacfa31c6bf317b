package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/daemon"
	"github.com/furkanakkurt/taskmanager/internal/logging"
)

func main() {
	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	// Config comes from $XDG_CONFIG_HOME (set by systemd) and TASKMANAGER_* variables
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	closer, err := logging.Init(cfg.Log)
	if err != nil {
		slog.Error("failed to initialize logging", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	server, err := daemon.NewServer(cfg.Events.SocketPath, daemon.WithLogger(slog.Default()))
	if err != nil {
		slog.Error("failed to create daemon", "error", err)
		os.Exit(1)
	}

	slog.Info("taskmanager daemon starting", "socket_path", cfg.Events.SocketPath, "pid", os.Getpid())

	// Start the daemon (blocks until shutdown)
	if err := server.Start(ctx); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}

	slog.Info("taskmanager daemon shutting down gracefully")
}
