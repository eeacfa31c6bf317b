package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output targets
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
	OutputBoth   = "both"
)

// Config describes where and how logs are written. Files are rotated by
// size.
type Config struct {
	Level      string `yaml:"level" env:"TASKMANAGER_LOG_LEVEL" env-default:"info"`
	Format     string `yaml:"format" env:"TASKMANAGER_LOG_FORMAT" env-default:"text"`
	Output     string `yaml:"output" env:"TASKMANAGER_LOG_OUTPUT" env-default:"file"`
	FilePath   string `yaml:"file_path" env:"TASKMANAGER_LOG_FILE"`
	MaxSize    int    `yaml:"max_size_mb" env:"TASKMANAGER_LOG_MAX_SIZE" env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env:"TASKMANAGER_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAge     int    `yaml:"max_age_days" env:"TASKMANAGER_LOG_MAX_AGE" env-default:"28"`
	Compress   bool   `yaml:"compress" env:"TASKMANAGER_LOG_COMPRESS"`
}

// Logger is the global slog instance for the application
var Logger *slog.Logger

// New builds a logger from cfg. The returned closer releases the log file,
// if one was opened.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	out, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), closer, nil
}

// Init installs the configured logger as the process default and sends the
// standard log package to the same destination.
func Init(cfg Config) (io.Closer, error) {
	logger, closer, err := New(cfg)
	if err != nil {
		return nil, err
	}

	Logger = logger
	slog.SetDefault(logger)

	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
	log.SetFlags(0)

	return closer, nil
}

// ParseLevel maps a level name to its slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func openOutput(cfg Config) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case OutputStdout:
		return os.Stdout, nopCloser{}, nil
	case "", OutputStderr:
		return os.Stderr, nopCloser{}, nil
	case OutputFile, OutputBoth:
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	if cfg.FilePath == "" {
		return nil, nil, fmt.Errorf("log output %q needs a file path", cfg.Output)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if strings.ToLower(cfg.Output) == OutputBoth {
		return io.MultiWriter(os.Stderr, file), file, nil
	}
	return file, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
