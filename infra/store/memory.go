// Package store provides the concrete record store implementations: an
// in-memory store for the live pipeline collections and a SQLite-backed
// append-only audit store.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kmehta07/lastmile/core/model"
	corestore "github.com/kmehta07/lastmile/core/store"
)

// MemoryStore keeps the five record collections in memory, keyed by
// shipment id. Decision updates enforce optimistic versioning so racing
// override writers are serialized.
type MemoryStore struct {
	mu          sync.RWMutex
	shipments   map[string]model.Shipment
	assessments map[string]model.RiskAssessment
	decisions   map[string]model.Decision
	overrides   map[string][]model.Override
	outcomes    []model.Outcome
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shipments:   map[string]model.Shipment{},
		assessments: map[string]model.RiskAssessment{},
		decisions:   map[string]model.Decision{},
		overrides:   map[string][]model.Override{},
	}
}

func (s *MemoryStore) PutShipment(_ context.Context, sh model.Shipment) error {
	s.mu.Lock()
	s.shipments[sh.ID] = sh
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetShipment(_ context.Context, id string) (model.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shipments[id]
	if !ok {
		return model.Shipment{}, corestore.ErrNotFound
	}
	return sh, nil
}

func (s *MemoryStore) PutAssessment(_ context.Context, a model.RiskAssessment) error {
	s.mu.Lock()
	s.assessments[a.ShipmentID] = a
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetAssessment(_ context.Context, id string) (model.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[id]
	if !ok {
		return model.RiskAssessment{}, corestore.ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) PutDecision(_ context.Context, d model.Decision) error {
	s.mu.Lock()
	d.Version = 1
	s.decisions[d.ShipmentID] = d
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetDecision(_ context.Context, id string) (model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[id]
	if !ok {
		return model.Decision{}, corestore.ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) UpdateDecision(_ context.Context, d model.Decision, expected int64) (model.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.decisions[d.ShipmentID]
	if !ok {
		return model.Decision{}, corestore.ErrNotFound
	}
	if cur.Version != expected {
		return model.Decision{}, &corestore.ConflictError{
			ShipmentID: d.ShipmentID,
			Expected:   expected,
			Actual:     cur.Version,
		}
	}
	d.Version = expected + 1
	s.decisions[d.ShipmentID] = d
	return d, nil
}

func (s *MemoryStore) AppendOverride(_ context.Context, o model.Override) error {
	s.mu.Lock()
	s.overrides[o.ShipmentID] = append(s.overrides[o.ShipmentID], o)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Overrides(_ context.Context, shipmentID string) ([]model.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.overrides[shipmentID]
	out := make([]model.Override, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) AppendOutcome(_ context.Context, o model.Outcome) error {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, o)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Outcomes(_ context.Context, q corestore.OutcomeQuery) ([]model.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Outcome
	for _, o := range s.outcomes {
		if !q.Since.IsZero() && o.RecordedAt.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && o.RecordedAt.After(q.Until) {
			continue
		}
		if q.Overridden != nil && o.Overridden != *q.Overridden {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}
