package imagestore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"sync"

	"github.com/yanqian/plant-care/internal/domain/timeline"
)

// ErrNotFound is returned when no object exists for a key.
var ErrNotFound = errors.New("image not found")

// Object is a stored image opened for reading.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store is implemented by every backend: it stores, serves and removes photos.
type Store interface {
	timeline.ImageStorage
	Open(ctx context.Context, key string) (Object, error)
}

// MemoryStorage keeps images in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

type storedBlob struct {
	data        []byte
	contentType string
	etag        string
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]storedBlob)}
}

// Put stores the image under a fresh key and returns the key.
func (s *MemoryStorage) Put(ctx context.Context, upload timeline.Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := NewKey(upload.ContentType)
	data := append([]byte(nil), upload.Data...)
	hash := md5.Sum(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = storedBlob{data: data, contentType: upload.ContentType, etag: hex.EncodeToString(hash[:])}
	return key, nil
}

// Open returns a reader for the stored image.
func (s *MemoryStorage) Open(_ context.Context, key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{
		Body:        io.NopCloser(bytes.NewReader(blob.data)),
		ContentType: blob.contentType,
		Size:        int64(len(blob.data)),
	}, nil
}

// Delete removes the image. Missing keys are ignored.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Len reports the number of stored images.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ Store = (*MemoryStorage)(nil)
