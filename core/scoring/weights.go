// Package scoring holds the tunable risk weights and the composite risk
// engine. Weights are the only mutable shared state in the pipeline: every
// scoring call reads an immutable snapshot and only the learning loop
// writes, so a half-applied adjustment is never visible to readers.
package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kmehta07/lastmile/core/model"
)

// Global weight bounds and the per-cycle adjustment cap.
const (
	MinWeight = 5
	MaxWeight = 30
	MaxStep   = 5

	// historyCap bounds the adjustment audit trail; the most recent entries
	// are retained.
	historyCap = 30
)

// DefaultWeights are the initial per-factor risk weights.
func DefaultWeights() map[model.Factor]int {
	return map[model.Factor]int{
		model.FactorCOD:     15,
		model.FactorAddress: 15,
		model.FactorWeather: 20,
		model.FactorArea:    15,
		model.FactorWeight:  10,
	}
}

// Adjustment records one applied weight change together with the statistic
// that triggered it. The history of adjustments is the audit trail the
// learning loop can be replayed from.
type Adjustment struct {
	Factor      model.Factor `json:"factor"`
	Old         int          `json:"old"`
	New         int          `json:"new"`
	FailureRate float64      `json:"failure_rate"`
	Samples     int          `json:"samples"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Snapshot is an immutable, versioned view of the weight configuration.
// Concurrent scoring during a learning cycle proceeds against the pre-cycle
// snapshot.
type Snapshot struct {
	Version   int64
	Values    map[model.Factor]int
	UpdatedAt time.Time
}

// Get returns the weight for a factor, or 0 for unknown factors.
func (s Snapshot) Get(f model.Factor) int { return s.Values[f] }

// BoundsError reports an attempted adjustment outside the global bounds.
// The adjustment is clamped and applied; the error is surfaced so the
// learning loop can log it and continue with other factors.
type BoundsError struct {
	Factor    model.Factor
	Attempted int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("weight %s: attempted value %d outside [%d,%d], clamped",
		e.Factor, e.Attempted, MinWeight, MaxWeight)
}

// Store owns the weight configuration. Readers take snapshots; the learning
// loop holds the write lock while applying a cycle's adjustments.
type Store struct {
	mu        sync.RWMutex
	values    map[model.Factor]int
	version   int64
	updatedAt time.Time
	history   []Adjustment
}

// NewStore returns a Store seeded with the default weights.
func NewStore() *Store {
	return &Store{values: DefaultWeights(), version: 1}
}

// NewStoreWithValues returns a Store seeded with the given weights. Every
// canonical factor must be present and within bounds.
func NewStoreWithValues(values map[model.Factor]int) (*Store, error) {
	seeded := make(map[model.Factor]int, len(model.CanonicalFactors))
	for _, f := range model.CanonicalFactors {
		w, ok := values[f]
		if !ok {
			return nil, fmt.Errorf("weight %s: missing", f)
		}
		if w < MinWeight || w > MaxWeight {
			return nil, fmt.Errorf("weight %s: %d outside [%d,%d]", f, w, MinWeight, MaxWeight)
		}
		seeded[f] = w
	}
	return &Store{values: seeded, version: 1}, nil
}

// Snapshot returns a consistent copy of the current weights.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	values := make(map[model.Factor]int, len(st.values))
	for f, w := range st.values {
		values[f] = w
	}
	return Snapshot{Version: st.version, Values: values, UpdatedAt: st.updatedAt}
}

// Adjust applies a bounded weight change for one factor. Deltas beyond
// MaxStep and values outside [MinWeight, MaxWeight] are clamped; clamping of
// the value is reported as a *BoundsError alongside the applied adjustment.
func (st *Store) Adjust(f model.Factor, delta int, failureRate float64, samples int, now time.Time) (Adjustment, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	old, ok := st.values[f]
	if !ok {
		return Adjustment{}, fmt.Errorf("weight %s: unknown factor", f)
	}

	if delta > MaxStep {
		delta = MaxStep
	}
	if delta < -MaxStep {
		delta = -MaxStep
	}

	attempted := old + delta
	applied := attempted
	var boundsErr error
	if applied < MinWeight {
		applied = MinWeight
		boundsErr = &BoundsError{Factor: f, Attempted: attempted}
	}
	if applied > MaxWeight {
		applied = MaxWeight
		boundsErr = &BoundsError{Factor: f, Attempted: attempted}
	}

	adj := Adjustment{
		Factor:      f,
		Old:         old,
		New:         applied,
		FailureRate: failureRate,
		Samples:     samples,
		Timestamp:   now,
	}
	st.values[f] = applied
	st.version++
	st.updatedAt = now
	st.history = append(st.history, adj)
	if len(st.history) > historyCap {
		st.history = st.history[len(st.history)-historyCap:]
	}
	return adj, boundsErr
}

// History returns a copy of the retained adjustment history, oldest first.
func (st *Store) History() []Adjustment {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Adjustment, len(st.history))
	copy(out, st.history)
	return out
}

// weightFile is the on-disk weight configuration.
type weightFile struct {
	Weights   map[model.Factor]int `json:"weights"`
	UpdatedAt time.Time            `json:"updated_at"`
	History   []Adjustment         `json:"adjustment_history"`
}

// LoadStore reads a weight configuration from a JSON file. An unreadable
// file is fatal for the pipeline: scoring with undefined weights is never
// attempted.
func LoadStore(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight config: %w", err)
	}
	var wf weightFile
	if err := json.Unmarshal(b, &wf); err != nil {
		return nil, fmt.Errorf("parse weight config: %w", err)
	}
	st, err := NewStoreWithValues(wf.Weights)
	if err != nil {
		return nil, err
	}
	st.updatedAt = wf.UpdatedAt
	st.history = wf.History
	if len(st.history) > historyCap {
		st.history = st.history[len(st.history)-historyCap:]
	}
	return st, nil
}

// Save writes the weight configuration and its history to a JSON file.
func (st *Store) Save(path string) error {
	st.mu.RLock()
	wf := weightFile{
		Weights:   make(map[model.Factor]int, len(st.values)),
		UpdatedAt: st.updatedAt,
		History:   make([]Adjustment, len(st.history)),
	}
	for f, w := range st.values {
		wf.Weights[f] = w
	}
	copy(wf.History, st.history)
	st.mu.RUnlock()

	b, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
