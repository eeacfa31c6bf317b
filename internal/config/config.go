package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/logging"
	"github.com/furkanakkurt/taskmanager/internal/storage"
	"github.com/furkanakkurt/taskmanager/internal/sweeper"
)

// Storage drivers
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Event transports
const (
	TransportSocket = "socket"
	TransportNATS   = "nats"
	TransportLocal  = "local"
	TransportNone   = "none"
)

// Config represents the application configuration
type Config struct {
	// UserID is the owner every CLI operation runs as
	UserID   string          `yaml:"user_id" env:"TASKMANAGER_USER_ID"`
	Database database.Config `yaml:"database"`
	Storage  StorageConfig   `yaml:"storage"`
	Events   EventsConfig    `yaml:"events"`
	HTTP     HTTPConfig      `yaml:"http"`
	Log      logging.Config  `yaml:"log"`
	Sweeper  sweeper.Config  `yaml:"sweeper"`
}

// StorageConfig selects the blob store and how attachment URLs are issued
type StorageConfig struct {
	Driver         string              `yaml:"driver" env:"TASKMANAGER_STORAGE_DRIVER" env-default:"local"`
	BasePath       string              `yaml:"base_path" env:"TASKMANAGER_STORAGE_PATH"`
	BaseURL        string              `yaml:"base_url" env:"TASKMANAGER_STORAGE_BASE_URL" env-default:"http://localhost:8080/files"`
	SigningKey     string              `yaml:"signing_key" env:"TASKMANAGER_STORAGE_SIGNING_KEY"`
	URLMode        string              `yaml:"url_mode" env:"TASKMANAGER_STORAGE_URL_MODE" env-default:"signed"`
	SignedURLTTL   time.Duration       `yaml:"signed_url_ttl" env:"TASKMANAGER_STORAGE_SIGNED_URL_TTL" env-default:"1h"`
	MaxUploadBytes int64               `yaml:"max_upload_bytes" env:"TASKMANAGER_STORAGE_MAX_UPLOAD_BYTES" env-default:"10485760"`
	Minio          storage.MinioConfig `yaml:"minio"`
}

// EventsConfig selects how changes travel between processes
type EventsConfig struct {
	Transport        string        `yaml:"transport" env:"TASKMANAGER_EVENTS_TRANSPORT" env-default:"socket"`
	SocketPath       string        `yaml:"socket_path" env:"TASKMANAGER_EVENTS_SOCKET"`
	NATSURL          string        `yaml:"nats_url" env:"TASKMANAGER_EVENTS_NATS_URL" env-default:"nats://127.0.0.1:4222"`
	PublishRetries   int           `yaml:"publish_retries" env:"TASKMANAGER_EVENTS_PUBLISH_RETRIES" env-default:"3"`
	ReconnectRetries int           `yaml:"reconnect_retries" env:"TASKMANAGER_EVENTS_RECONNECT_RETRIES"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay" env:"TASKMANAGER_EVENTS_RECONNECT_DELAY" env-default:"1s"`
}

// HTTPConfig configures the REST gateway
type HTTPConfig struct {
	Address      string        `yaml:"address" env:"TASKMANAGER_HTTP_ADDRESS" env-default:":8080"`
	JWTSecret    string        `yaml:"jwt_secret" env:"TASKMANAGER_JWT_SECRET"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"TASKMANAGER_HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"TASKMANAGER_HTTP_WRITE_TIMEOUT"`
}

// Load reads the config file at path, overlaying environment variables and
// a .env file in the working directory. An empty path means DefaultPath.
// A missing file is not an error; environment and defaults are used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	var cfg Config
	if err := read(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envPrefix marks the variables cleanenv reads into Config
const envPrefix = "TASKMANAGER_"

// read fills cfg from the file at path and the environment. A TASKMANAGER_
// variable that is set but empty counts as unset, so it cannot blank out a
// file value or a default.
func read(path string, cfg *Config) error {
	restore := hideEmptyEnv()
	defer restore()

	if path == "" {
		return cleanenv.ReadEnv(cfg)
	}

	err := cleanenv.ReadConfig(path, cfg)
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

func hideEmptyEnv() func() {
	var hidden []string
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		if value == "" && strings.HasPrefix(key, envPrefix) {
			if os.Unsetenv(key) == nil {
				hidden = append(hidden, key)
			}
		}
	}
	return func() {
		for _, key := range hidden {
			_ = os.Setenv(key, "")
		}
	}
}

// Save writes the config as YAML to path, creating its directory
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Secrets live here
	return os.WriteFile(path, data, 0o600)
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case database.DriverSQLite, database.DriverPostgres, "pgx":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageMinio:
		if c.Storage.Minio.Endpoint == "" {
			return errors.New("config: storage.minio.endpoint is required for the minio driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Storage.URLMode {
	case "signed", "public":
	default:
		return fmt.Errorf("config: unknown storage url mode %q", c.Storage.URLMode)
	}

	switch c.Events.Transport {
	case TransportSocket, TransportNATS, TransportLocal, TransportNone:
	default:
		return fmt.Errorf("config: unknown events transport %q", c.Events.Transport)
	}

	if c.Sweeper.Interval <= 0 {
		return errors.New("config: sweeper.interval must be positive")
	}
	return nil
}

// DefaultPath returns the path of the config file under the user's config
// directory
func DefaultPath() (string, error) {
	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "taskmanager", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "taskmanager", "config.yaml"), nil
}

// DataDir returns the directory holding the database, blobs, socket and
// logs. TASKMANAGER_HOME overrides ~/.taskmanager.
func DataDir() (string, error) {
	if dir := os.Getenv("TASKMANAGER_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".taskmanager"), nil
}

// applyDefaults fills in the paths that depend on the data directory
func (c *Config) applyDefaults() error {
	needsDir := c.Storage.BasePath == "" || c.Events.SocketPath == "" || c.Log.FilePath == "" ||
		(c.Database.DSN == "" && isSQLite(c.Database.Driver))
	if !needsDir {
		return nil
	}

	dir, err := DataDir()
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}

	if c.Database.DSN == "" && isSQLite(c.Database.Driver) {
		c.Database.DSN = filepath.Join(dir, "taskmanager.db")
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = filepath.Join(dir, "blobs")
	}
	if c.Events.SocketPath == "" {
		c.Events.SocketPath = filepath.Join(dir, "events.sock")
	}
	if c.Log.FilePath == "" {
		c.Log.FilePath = filepath.Join(dir, "logs", "taskmanager.log")
	}
	return nil
}

func isSQLite(driver string) bool {
	return driver == "" || strings.EqualFold(driver, database.DriverSQLite)
}
