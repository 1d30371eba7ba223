package metrics

import "sync/atomic"

// PredictionTally counts normalized prediction outcomes since process start.
type PredictionTally struct {
	single       atomic.Int64
	multiStation atomic.Int64
	failed       atomic.Int64
}

// TallySnapshot is the serializable view of a PredictionTally.
type TallySnapshot struct {
	Single       int64 `json:"single"`
	MultiStation int64 `json:"multiStation"`
	Failed       int64 `json:"failed"`
}

// NewPredictionTally builds an empty tally.
func NewPredictionTally() *PredictionTally {
	return &PredictionTally{}
}

// Record bumps the counter for kind. Unknown kinds are ignored.
func (t *PredictionTally) Record(kind string) {
	if t == nil {
		return
	}
	switch kind {
	case "single":
		t.single.Add(1)
	case "multi_station":
		t.multiStation.Add(1)
	case "error":
		t.failed.Add(1)
	}
}

// Snapshot returns the current counts.
func (t *PredictionTally) Snapshot() TallySnapshot {
	if t == nil {
		return TallySnapshot{}
	}
	return TallySnapshot{
		Single:       t.single.Load(),
		MultiStation: t.multiStation.Load(),
		Failed:       t.failed.Load(),
	}
}

// IsZero reports whether no outcome was recorded yet.
func (s TallySnapshot) IsZero() bool {
	return s.Single == 0 && s.MultiStation == 0 && s.Failed == 0
}
