package storage

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalConfig configures a LocalStore
type LocalConfig struct {
	BasePath string
	// BaseURL is the address blobs are served from, for example
	// http://localhost:8080/files
	BaseURL string
	// SigningKey signs URLs. A random key is generated when empty, so
	// signed URLs then stop verifying after a restart.
	SigningKey string
}

// LocalStore keeps blobs as files below a base directory. Signed URLs carry
// an expiry and an HMAC-SHA256 signature checked by Verify.
type LocalStore struct {
	base    string
	baseURL string
	key     []byte
	clock   func() time.Time
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("local storage base path is required")
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		slog.Warn("no storage signing key configured, signed urls will not survive a restart")
	}

	return &LocalStore{
		base:    cfg.BasePath,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		key:     key,
		clock:   time.Now,
	}, nil
}

func (s *LocalStore) Provider() string { return "local" }

func (s *LocalStore) resolve(p string) (string, string, error) {
	clean, err := normalize(p)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.base, filepath.FromSlash(clean)), nil
}

// Put writes the blob through a temporary file so readers never see a
// partial blob. An existing blob at path is replaced.
func (s *LocalStore) Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once renamed
		_ = os.Remove(tmpName)
	}()

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write blob %s: %w", clean, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("blob %s: wrote %d bytes, expected %d", clean, written, size)
	}

	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("failed to store blob %s: %w", clean, err)
	}
	slog.Debug("blob stored", "path", clean, "size", written, "content_type", contentType)
	return nil
}

func (s *LocalStore) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove blob %s: %w", clean, err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, full, err := s.resolve(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Open returns the blob for reading. The caller closes it.
func (s *LocalStore) Open(p string) (*os.File, ObjectInfo, error) {
	clean, full, err := s.resolve(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return f, ObjectInfo{Path: clean, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// List walks every blob whose path starts with prefix
func (s *LocalStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	var objects []ObjectInfo

	err := filepath.WalkDir(s.base, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.base, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{Path: rel, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	return objects, nil
}

func (s *LocalStore) PublicURL(p string) string {
	return s.baseURL + "/" + escapePath(strings.TrimPrefix(p, "/"))
}

// SignedURL returns {base_url}/{path}?expires=<unix>&signature=<hex>
func (s *LocalStore) SignedURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := normalize(p)
	if err != nil {
		return "", err
	}
	expires := strconv.FormatInt(s.clock().Add(ttl).Unix(), 10)

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", s.sign(clean, expires))
	return s.PublicURL(clean) + "?" + q.Encode(), nil
}

// Verify checks a signature produced by SignedURL
func (s *LocalStore) Verify(p, expires, signature string) error {
	clean, err := normalize(p)
	if err != nil {
		return err
	}
	want, err := hex.DecodeString(s.sign(clean, expires))
	if err != nil {
		return ErrSignatureInvalid
	}
	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(got, want) {
		return ErrSignatureInvalid
	}

	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	if s.clock().Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}

func (s *LocalStore) sign(p, expires string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(p))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}
