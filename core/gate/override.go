package gate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kmehta07/lastmile/core/model"
)

// MinReasonLength is the shortest acceptable override justification.
const MinReasonLength = 10

// InsufficientAuthorityError rejects an override from an actor without the
// authority the shipment's risk bucket requires.
type InsufficientAuthorityError struct {
	Actor     string
	Authority model.Authority
	Bucket    model.RiskBucket
}

func (e *InsufficientAuthorityError) Error() string {
	return fmt.Sprintf("%s (%s) may not override a %s-risk decision",
		e.Actor, e.Authority, e.Bucket)
}

// MissingJustificationError rejects an override whose reason is shorter than
// MinReasonLength.
type MissingJustificationError struct {
	Length int
}

func (e *MissingJustificationError) Error() string {
	return fmt.Sprintf("override reason must be at least %d characters, got %d",
		MinReasonLength, e.Length)
}

// NoOpOverrideError rejects an override that proposes the decision already
// in force.
type NoOpOverrideError struct {
	Decision model.DecisionKind
}

func (e *NoOpOverrideError) Error() string {
	return fmt.Sprintf("proposed decision %s matches the current decision", e.Decision)
}

// OverrideRequest carries the four fields a manager action surface must
// supply.
type OverrideRequest struct {
	ShipmentID string
	Proposed   model.DecisionKind
	Actor      string
	Authority  model.Authority
	Reason     string
}

// authorityPolicy is the override permission table: the highest risk bucket
// each authority level may touch. Absent levels may not override at all.
var authorityPolicy = map[model.Authority]model.RiskBucket{
	model.AuthoritySupervisor: model.BucketMedium,
	model.AuthorityManager:    model.BucketHigh,
}

// ApplyOverride validates an override request against the current decision
// and, on success, returns the overridden decision and the immutable
// override record. Validation order: authority, justification, no-op. Every
// successful override locks the shipment, whichever authority issued it.
func ApplyOverride(d model.Decision, req OverrideRequest, now time.Time) (model.Decision, model.Override, error) {
	maxBucket, may := authorityPolicy[req.Authority]
	if !may || d.Bucket > maxBucket {
		return model.Decision{}, model.Override{}, &InsufficientAuthorityError{
			Actor:     req.Actor,
			Authority: req.Authority,
			Bucket:    d.Bucket,
		}
	}

	if len(req.Reason) < MinReasonLength {
		return model.Decision{}, model.Override{}, &MissingJustificationError{Length: len(req.Reason)}
	}

	if req.Proposed == d.Kind {
		return model.Decision{}, model.Override{}, &NoOpOverrideError{Decision: d.Kind}
	}

	ov := model.Override{
		ID:         uuid.NewString(),
		ShipmentID: d.ShipmentID,
		Prior:      d.Kind,
		New:        req.Proposed,
		Actor:      req.Actor,
		Authority:  req.Authority,
		Reason:     req.Reason,
		Timestamp:  now,
	}

	d.Kind = req.Proposed
	d.Source = model.SourceHuman
	d.State = model.StateOverridden
	d.Locked = true
	d.DecidedAt = now
	return d, ov, nil
}
