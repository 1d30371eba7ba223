package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var sgt = time.FixedZone("Asia/Singapore", 8*60*60)

type calendar []string

func (c calendar) Contains(date string) bool {
	for _, d := range c {
		if d == date {
			return true
		}
	}
	return false
}

type stubStore struct {
	states  map[string]State
	getErr  error
	saveErr error
	saves   int
}

func newStubStore() *stubStore {
	return &stubStore{states: make(map[string]State)}
}

func (s *stubStore) Get(_ context.Context, sessionID string) (State, bool, error) {
	if s.getErr != nil {
		return State{}, false, s.getErr
	}
	state, ok := s.states[sessionID]
	return state, ok, nil
}

func (s *stubStore) Save(_ context.Context, sessionID string, state State) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.states[sessionID] = state
	return nil
}

func newSelectorUnderTest(store Store, policy StalePolicy) *Selector {
	sel := NewSelector(Config{Location: sgt, StalePolicy: policy}, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sel.now = func() time.Time {
		return time.Date(2024, 5, 1, 9, 0, 0, 0, sgt)
	}
	return sel
}

var series = calendar{"2024-05-01", "2024-05-02", "2024-05-03"}

func TestResolveExplicitDatePersists(t *testing.T) {
	store := newStubStore()
	sel := newSelectorUnderTest(store, StaleFallback)

	res := sel.Resolve(context.Background(), "sess", "2024-05-03", series)
	require.Equal(t, Resolution{Date: "2024-05-03", Source: SourceExplicit}, res)
	require.Equal(t, "2024-05-03", store.states["sess"].SelectedDate)

	res = sel.Resolve(context.Background(), "sess", "", series)
	require.Equal(t, Resolution{Date: "2024-05-03", Source: SourcePersisted}, res)
}

func TestResolveInvalidExplicitKeepsPersisted(t *testing.T) {
	store := newStubStore()
	store.states["sess"] = State{SelectedDate: "2024-05-03"}
	sel := newSelectorUnderTest(store, StaleFallback)

	for _, bad := range []string{"2024-06-01", "garbage", "2024-5-3"} {
		res := sel.Resolve(context.Background(), "sess", bad, series)
		require.Equal(t, Resolution{Date: "2024-05-03", Source: SourcePersisted}, res)
	}
	require.Equal(t, "2024-05-03", store.states["sess"].SelectedDate)
	require.Zero(t, store.saves)
}

func TestResolveDefaultsToTomorrowAndCreatesState(t *testing.T) {
	store := newStubStore()
	sel := newSelectorUnderTest(store, StaleFallback)

	res := sel.Resolve(context.Background(), "fresh", "", series)
	require.Equal(t, Resolution{Date: "2024-05-02", Source: SourceDefault}, res)
	require.Equal(t, "2024-05-02", store.states["fresh"].SelectedDate)
	require.Equal(t, 1, store.saves)
}

func TestResolveInvalidExplicitWithoutStateFallsBackToTomorrow(t *testing.T) {
	store := newStubStore()
	sel := newSelectorUnderTest(store, StaleFallback)

	res := sel.Resolve(context.Background(), "fresh", "2030-01-01", series)
	require.Equal(t, Resolution{Date: "2024-05-02", Source: SourceDefault}, res)
}

func TestResolveStaleFallback(t *testing.T) {
	store := newStubStore()
	store.states["sess"] = State{SelectedDate: "2024-04-20"}
	sel := newSelectorUnderTest(store, StaleFallback)

	res := sel.Resolve(context.Background(), "sess", "", series)
	require.Equal(t, Resolution{Date: "2024-05-02", Source: SourceDefault}, res)
	require.Equal(t, "2024-04-20", store.states["sess"].SelectedDate, "stale state is carried forward unchanged")
	require.Zero(t, store.saves)
}

func TestResolveStaleReject(t *testing.T) {
	store := newStubStore()
	store.states["sess"] = State{SelectedDate: "2024-04-20"}
	sel := newSelectorUnderTest(store, StaleReject)

	res := sel.Resolve(context.Background(), "sess", "", series)
	require.Equal(t, Resolution{Date: "2024-04-20", Source: SourcePersisted}, res)
	require.False(t, series.Contains(res.Date))
}

func TestResolveStoreErrorsAreNotFatal(t *testing.T) {
	store := newStubStore()
	store.getErr = errors.New("valkey down")
	store.saveErr = errors.New("valkey down")
	sel := newSelectorUnderTest(store, StaleFallback)

	res := sel.Resolve(context.Background(), "sess", "", series)
	require.Equal(t, Resolution{Date: "2024-05-02", Source: SourceDefault}, res)

	res = sel.Resolve(context.Background(), "sess", "2024-05-01", series)
	require.Equal(t, Resolution{Date: "2024-05-01", Source: SourceExplicit}, res)
}

func TestResolveWithoutSession(t *testing.T) {
	store := newStubStore()
	sel := newSelectorUnderTest(store, StaleFallback)

	res := sel.Resolve(context.Background(), "", "2024-05-01", series)
	require.Equal(t, SourceExplicit, res.Source)
	require.Zero(t, store.saves)
}

func TestParseStalePolicy(t *testing.T) {
	policy, ok := ParseStalePolicy("")
	require.True(t, ok)
	require.Equal(t, StaleFallback, policy)

	policy, ok = ParseStalePolicy(" Reject ")
	require.True(t, ok)
	require.Equal(t, StaleReject, policy)

	_, ok = ParseStalePolicy("sometimes")
	require.False(t, ok)
}
