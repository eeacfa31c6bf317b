package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/furkanakkurt/taskmanager/internal/storage"
)

// FakeBlobStore is an in-memory storage.BlobStore. PutErr and RemoveErr
// force the next calls to fail.
type FakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	modTime map[string]time.Time

	PutErr    error
	RemoveErr error
	SignErr   error
	Now       func() time.Time

	puts    int
	removes int
}

func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		modTime: make(map[string]time.Time),
		Now:     time.Now,
	}
}

func (s *FakeBlobStore) Provider() string { return "fake" }

func (s *FakeBlobStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("blob %s: got %d bytes, want %d", path, len(data), size)
	}
	s.objects[path] = data
	s.types[path] = contentType
	s.modTime[path] = s.Now()
	return nil
}

func (s *FakeBlobStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	delete(s.objects, path)
	delete(s.types, path)
	delete(s.modTime, path)
	return nil
}

func (s *FakeBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *FakeBlobStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.ObjectInfo
	for p, data := range s.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, storage.ObjectInfo{Path: p, Size: int64(len(data)), ModTime: s.modTime[p]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *FakeBlobStore) PublicURL(path string) string {
	return "https://blobs.test/public/" + path
}

func (s *FakeBlobStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if s.SignErr != nil {
		return "", s.SignErr
	}
	return fmt.Sprintf("https://blobs.test/signed/%s?ttl=%d", path, int(ttl.Seconds())), nil
}

// Content returns the stored bytes and content type of path
func (s *FakeBlobStore) Content(path string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	return data, s.types[path], ok
}

// Touch sets the modification time of a stored blob
func (s *FakeBlobStore) Touch(path string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; ok {
		s.modTime[path] = at
	}
}

func (s *FakeBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Calls reports how many Put and Remove calls were made
func (s *FakeBlobStore) Calls() (puts, removes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts, s.removes
}

var _ storage.BlobStore = (*FakeBlobStore)(nil)
