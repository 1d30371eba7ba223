package exportstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

// MemoryStore keeps exports in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore constructs storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores the blob and returns metadata.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (prediction.ExportObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	s.blobs[key] = append([]byte(nil), data...)
	return prediction.ExportObject{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		ETag:        hex.EncodeToString(hash[:]),
	}, nil
}

// Object returns a stored export.
func (s *MemoryStore) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	return data, ok
}

var _ prediction.ExportStore = (*MemoryStore)(nil)
