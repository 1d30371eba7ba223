package selectionstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/phytocast/internal/domain/selection"
)

type stateRecord struct {
	payload   selection.State
	expiresAt time.Time
}

// MemoryStore is an in-memory selection store for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	ttl    time.Duration
	states map[string]stateRecord
	now    func() time.Time
}

// NewMemoryStore constructs a store backed by process memory. A zero ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		states: make(map[string]stateRecord),
		now:    time.Now,
	}
}

// Get implements selection.Store.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (selection.State, bool, error) {
	if sessionID == "" {
		return selection.State{}, false, nil
	}
	s.mu.RLock()
	record, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return selection.State{}, false, nil
	}
	if !record.expiresAt.IsZero() && record.expiresAt.Before(s.now()) {
		s.mu.Lock()
		delete(s.states, sessionID)
		s.mu.Unlock()
		return selection.State{}, false, nil
	}
	return record.payload, true, nil
}

// Save implements selection.Store.
func (s *MemoryStore) Save(_ context.Context, sessionID string, state selection.State) error {
	if sessionID == "" {
		return nil
	}
	exp := time.Time{}
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = stateRecord{payload: state, expiresAt: exp}
	return nil
}

var _ selection.Store = (*MemoryStore)(nil)
