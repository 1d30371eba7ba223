package historyrepo

import (
	"context"
	"sync"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

// MemoryRepository keeps prediction history in process memory for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	max     int
	records []prediction.Record
}

// NewMemoryRepository constructs a repo that keeps at most max records (0 means unbounded).
func NewMemoryRepository(max int) *MemoryRepository {
	return &MemoryRepository{max: max}
}

// Save implements prediction.HistoryRepository.
func (r *MemoryRepository) Save(_ context.Context, record prediction.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	if r.max > 0 && len(r.records) > r.max {
		r.records = r.records[len(r.records)-r.max:]
	}
	return nil
}

// List returns up to limit records, newest first.
func (r *MemoryRepository) List(_ context.Context, limit int) ([]prediction.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]prediction.Record, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

var _ prediction.HistoryRepository = (*MemoryRepository)(nil)
