// Package store defines the record store collaborators the pipeline
// requires: five logical collections keyed by shipment id, with optimistic
// locking on decision updates. Storage technology is an external concern.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kmehta07/lastmile/core/model"
)

// ErrNotFound is returned when no record exists for the given shipment id.
var ErrNotFound = errors.New("record not found")

// ConflictError reports a lost optimistic-lock race on a decision update.
// The losing writer must re-read and retry or give up; the store never
// silently overwrites.
type ConflictError struct {
	ShipmentID string
	Expected   int64
	Actual     int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shipment %s: decision version conflict (expected %d, found %d)",
		e.ShipmentID, e.Expected, e.Actual)
}

// OutcomeQuery filters outcome records.
type OutcomeQuery struct {
	Since time.Time
	Until time.Time
	// Overridden filters on whether a human override occurred; nil matches
	// both.
	Overridden *bool
}

// RecordStore is the live record collaborator used by the pipeline.
type RecordStore interface {
	PutShipment(ctx context.Context, s model.Shipment) error
	GetShipment(ctx context.Context, id string) (model.Shipment, error)

	PutAssessment(ctx context.Context, a model.RiskAssessment) error
	GetAssessment(ctx context.Context, id string) (model.RiskAssessment, error)

	// PutDecision creates or replaces the decision for a shipment and
	// assigns version 1.
	PutDecision(ctx context.Context, d model.Decision) error
	GetDecision(ctx context.Context, id string) (model.Decision, error)
	// UpdateDecision applies d only when the stored version matches
	// expected; a mismatch returns *ConflictError.
	UpdateDecision(ctx context.Context, d model.Decision, expected int64) (model.Decision, error)

	// AppendOverride writes an override record. Overrides are append-only
	// and never edited.
	AppendOverride(ctx context.Context, o model.Override) error
	Overrides(ctx context.Context, shipmentID string) ([]model.Override, error)

	AppendOutcome(ctx context.Context, o model.Outcome) error
	Outcomes(ctx context.Context, q OutcomeQuery) ([]model.Outcome, error)
}

// DecisionQuery filters decision audit records.
type DecisionQuery struct {
	Start      time.Time
	End        time.Time
	ShipmentID string
}

// AuditStore persists the append-only audit trail of decisions, overrides
// and outcomes and supports querying for the operator surfaces.
type AuditStore interface {
	AppendDecision(ctx context.Context, d model.Decision) error
	AppendOverride(ctx context.Context, o model.Override) error
	AppendOutcome(ctx context.Context, o model.Outcome) error
	Decisions(ctx context.Context, q DecisionQuery) ([]model.Decision, error)
	OverrideLog(ctx context.Context, shipmentID string) ([]model.Override, error)
	OutcomeLog(ctx context.Context, q OutcomeQuery) ([]model.Outcome, error)
	Close() error
}
