package selection

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/phytocast/pkg/util"
)

// State is the per-session selection persisted across requests.
type State struct {
	SelectedDate string    `json:"selectedDate"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store persists selection state keyed by session id.
type Store interface {
	Get(ctx context.Context, sessionID string) (State, bool, error)
	Save(ctx context.Context, sessionID string, state State) error
}

// Calendar is the set of dates a selection can be validated against.
type Calendar interface {
	Contains(date string) bool
}

// Source tells where a resolved date came from.
type Source string

const (
	SourceExplicit  Source = "explicit"
	SourcePersisted Source = "persisted"
	SourceDefault   Source = "default"
)

// StalePolicy controls what happens when the persisted date is not in the current series.
type StalePolicy string

const (
	// StaleFallback resolves to tomorrow and leaves the persisted state untouched.
	StaleFallback StalePolicy = "fallback"
	// StaleReject keeps the persisted date so the lookup reports it as missing.
	StaleReject StalePolicy = "reject"
)

// ParseStalePolicy maps a config value to a policy, defaulting to StaleFallback.
func ParseStalePolicy(value string) (StalePolicy, bool) {
	switch StalePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", StaleFallback:
		return StaleFallback, true
	case StaleReject:
		return StaleReject, true
	default:
		return StaleFallback, false
	}
}

// Config wires the selector behavior.
type Config struct {
	Location    *time.Location
	StalePolicy StalePolicy
	// Now overrides the clock used to compute tomorrow.
	Now func() time.Time
}

// Resolution is the effective date for one request.
type Resolution struct {
	Date   string `json:"date"`
	Source Source `json:"source"`
}

// Selector resolves the date a request works on.
type Selector struct {
	cfg    Config
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewSelector builds a Selector backed by store.
func NewSelector(cfg Config, store Store, logger *slog.Logger) *Selector {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.StalePolicy == "" {
		cfg.StalePolicy = StaleFallback
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Selector{
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "selection.selector"),
		now:    now,
	}
}

// Resolve picks the date for this request: a valid explicit date first, then the
// persisted selection, then tomorrow. Only a valid explicit date or a first visit
// writes state; an explicit date outside cal never touches it.
func (s *Selector) Resolve(ctx context.Context, sessionID, explicit string, cal Calendar) Resolution {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		if cal.Contains(explicit) {
			s.persist(ctx, sessionID, explicit)
			return Resolution{Date: explicit, Source: SourceExplicit}
		}
		s.logger.Info("explicit date not in forecast, ignoring", "date", explicit)
	}

	if state, ok := s.load(ctx, sessionID); ok {
		if cal.Contains(state.SelectedDate) || s.cfg.StalePolicy == StaleReject {
			return Resolution{Date: state.SelectedDate, Source: SourcePersisted}
		}
		s.logger.Info("persisted date not in forecast, using default", "date", state.SelectedDate)
		return Resolution{Date: s.tomorrow(), Source: SourceDefault}
	}

	date := s.tomorrow()
	s.persist(ctx, sessionID, date)
	return Resolution{Date: date, Source: SourceDefault}
}

func (s *Selector) tomorrow() string {
	return util.Tomorrow(s.now(), s.cfg.Location)
}

func (s *Selector) load(ctx context.Context, sessionID string) (State, bool) {
	if sessionID == "" || s.store == nil {
		return State{}, false
	}
	state, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("selection load failed", "error", err)
		return State{}, false
	}
	if !ok || strings.TrimSpace(state.SelectedDate) == "" {
		return State{}, false
	}
	return state, true
}

func (s *Selector) persist(ctx context.Context, sessionID, date string) {
	if sessionID == "" || s.store == nil {
		return
	}
	state := State{SelectedDate: date, UpdatedAt: s.now().UTC()}
	if err := s.store.Save(ctx, sessionID, state); err != nil {
		s.logger.Warn("selection save failed", "error", err, "date", date)
	}
}
