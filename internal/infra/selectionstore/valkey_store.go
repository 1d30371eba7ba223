package selectionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/phytocast/internal/domain/selection"
)

// ValkeyStore persists selection state in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "phytocast"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

// Get loads the state saved for sessionID. A missing key is reported as not found, not as an error.
func (s *ValkeyStore) Get(ctx context.Context, sessionID string) (selection.State, bool, error) {
	if sessionID == "" {
		return selection.State{}, false, nil
	}
	result := s.client.Do(ctx, s.client.B().Get().Key(s.sessionKey(sessionID)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return selection.State{}, false, nil
		}
		return selection.State{}, false, err
	}
	state, err := decodeState(payload)
	if err != nil {
		return selection.State{}, false, err
	}
	return state, true, nil
}

// Save writes state for sessionID, expiring it after the store TTL when one is set.
func (s *ValkeyStore) Save(ctx context.Context, sessionID string, state selection.State) error {
	if sessionID == "" {
		return nil
	}
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.sessionKey(sessionID)).Value(payload)
	var cmd valkey.Completed
	if ttl, ok := s.expiry(); ok {
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, sessionID)
}

// expiry is the EX argument for SET. Valkey counts EX in whole seconds, so
// sub-second TTLs are raised to one second.
func (s *ValkeyStore) expiry() (time.Duration, bool) {
	if s.ttl <= 0 {
		return 0, false
	}
	if s.ttl < time.Second {
		return time.Second, true
	}
	return s.ttl, true
}

func encodeState(state selection.State) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func decodeState(payload string) (selection.State, error) {
	var state selection.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return selection.State{}, fmt.Errorf("decode selection state: %w", err)
	}
	return state, nil
}

var _ selection.Store = (*ValkeyStore)(nil)
