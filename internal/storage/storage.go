// Package storage is the blob half of the data gateway. Attachments are
// stored under {owner}/{task}/{file name} in either a local directory or an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	ErrInvalidPath       = errors.New("invalid blob path")
	ErrObjectNotFound    = errors.New("blob not found")
	ErrSignatureInvalid  = errors.New("signature is invalid")
	ErrSignatureExpired  = errors.New("signed url has expired")
	ErrSigningNotEnabled = errors.New("store does not sign urls")
)

// ObjectInfo describes a stored blob
type ObjectInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// BlobStore is implemented by every blob backend. Remove of a missing blob
// succeeds.
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	PublicURL(path string) string
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Provider() string
}

// BlobPath returns the storage path of an attachment. The file name is
// reduced to a slug with its extension kept, so the same name for the same
// task always maps to the same path.
func BlobPath(ownerID, taskID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = "file"
	}
	return ownerID + "/" + taskID + "/" + stem + cleanExt(ext)
}

func cleanExt(ext string) string {
	if len(ext) < 2 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('.')
	for _, r := range ext[1:] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}

// normalize rejects paths that could escape the store root
func normalize(p string) (string, error) {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}

// escapePath percent-encodes each segment of a blob path for use in a URL
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
