package selectionstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/phytocast/internal/domain/selection"
)

func TestValkeySessionKey(t *testing.T) {
	require.Equal(t, "phytocast:session:abc", NewValkeyStore(nil, "", 0).sessionKey("abc"))
	require.Equal(t, "tenant:session:abc", NewValkeyStore(nil, "tenant", 0).sessionKey("abc"))
}

func TestValkeyExpiry(t *testing.T) {
	cases := []struct {
		ttl  time.Duration
		want time.Duration
		ok   bool
	}{
		{ttl: 0, ok: false},
		{ttl: -time.Minute, ok: false},
		{ttl: 200 * time.Millisecond, want: time.Second, ok: true},
		{ttl: time.Second, want: time.Second, ok: true},
		{ttl: 30 * 24 * time.Hour, want: 30 * 24 * time.Hour, ok: true},
	}
	for _, tc := range cases {
		got, ok := NewValkeyStore(nil, "p", tc.ttl).expiry()
		require.Equal(t, tc.ok, ok, tc.ttl.String())
		require.Equal(t, tc.want, got, tc.ttl.String())
	}
}

func TestValkeyStateCodec(t *testing.T) {
	state := selection.State{SelectedDate: "2024-05-02", UpdatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}

	payload, err := encodeState(state)
	require.NoError(t, err)
	require.JSONEq(t, `{"selectedDate":"2024-05-02","updatedAt":"2024-05-01T09:00:00Z"}`, payload)

	got, err := decodeState(payload)
	require.NoError(t, err)
	require.Equal(t, state, got)

	_, err = decodeState("not-json")
	require.ErrorContains(t, err, "decode selection state")
}
