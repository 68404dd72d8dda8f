package blobstore

import (
	"context"
	"sync"

	"github.com/yanqian/edusolve/internal/domain/document"
)

// MemoryStorage keeps blobs in memory for tests and local dev.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	types map[string]string
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte), types: make(map[string]string)}
}

// Put stores a copy of data under key.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return key, nil
}

// Get returns the stored blob and its content type.
func (s *MemoryStorage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	return data, s.types[key], ok
}

var _ document.BlobStore = (*MemoryStorage)(nil)
