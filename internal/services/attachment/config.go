package attachment

import (
	"fmt"
	"time"
)

// URLMode selects how attachment URLs are resolved
type URLMode string

const (
	URLSigned URLMode = "signed"
	URLPublic URLMode = "public"
)

const (
	DefaultMaxUploadBytes int64 = 10 << 20
	DefaultSignedURLTTL         = time.Hour
	DefaultCleanupTimeout       = 10 * time.Second
)

// Config holds the upload policy. One size ceiling and one URL mode apply
// to every caller.
type Config struct {
	MaxUploadBytes int64
	URLMode        URLMode
	SignedURLTTL   time.Duration
	// CleanupTimeout bounds the compensating blob delete after a failed
	// record insert
	CleanupTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxUploadBytes: DefaultMaxUploadBytes,
		URLMode:        URLSigned,
		SignedURLTTL:   DefaultSignedURLTTL,
		CleanupTimeout: DefaultCleanupTimeout,
	}
}

// withDefaults fills zero fields and rejects unknown URL modes
func (c Config) withDefaults() (Config, error) {
	d := DefaultConfig()
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.URLMode == "" {
		c.URLMode = d.URLMode
	}
	if c.SignedURLTTL <= 0 {
		c.SignedURLTTL = d.SignedURLTTL
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = d.CleanupTimeout
	}
	if c.URLMode != URLSigned && c.URLMode != URLPublic {
		return c, fmt.Errorf("unknown attachment url mode %q (must be signed or public)", c.URLMode)
	}
	return c, nil
}
