// Package gate maps risk assessments to dispatch decisions and enforces the
// human override rules. The gate is the only component with decision
// authority; scoring and explanation feed it, never bypass it.
package gate

import (
	"fmt"
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scorers"
	"github.com/kmehta07/lastmile/core/scoring"
)

// LockedShipmentError rejects automatic re-evaluation of a shipment whose
// decision has been locked by a human override.
type LockedShipmentError struct {
	ShipmentID string
}

func (e *LockedShipmentError) Error() string {
	return fmt.Sprintf("shipment %s: decision is locked by a human override", e.ShipmentID)
}

// Decide maps a risk assessment and the scorer verdicts to a dispatch
// decision from the PENDING state. A hard BLOCK or REJECT from any scorer
// forces RESCHEDULE regardless of the numeric score; that safety rule cannot
// be weakened by weight tuning.
func Decide(a model.RiskAssessment, v scorers.Verdicts, cfg scoring.Config, reasons []string, now time.Time) model.Decision {
	kind := kindForScore(a.Total, cfg)
	if v.HardBlock() {
		kind = model.DecideReschedule
		reasons = append([]string{hardBlockReason(v)}, reasons...)
	}

	return model.Decision{
		ShipmentID: a.ShipmentID,
		Kind:       kind,
		Source:     model.SourceAuto,
		State:      stateFor(kind),
		RiskScore:  a.Total,
		Bucket:     a.Bucket,
		Reasons:    reasons,
		DecidedAt:  now,
	}
}

func kindForScore(score int, cfg scoring.Config) model.DecisionKind {
	switch {
	case score >= cfg.HighThreshold:
		return model.DecideReschedule
	case score >= cfg.MediumThreshold:
		return model.DecideDelay
	default:
		return model.DecideDispatch
	}
}

func stateFor(kind model.DecisionKind) model.DecisionState {
	switch kind {
	case model.DecideDelay:
		return model.StateDelay
	case model.DecideReschedule:
		return model.StateReschedule
	default:
		return model.StateDispatch
	}
}

func hardBlockReason(v scorers.Verdicts) string {
	if v.Area.Status == scorers.AreaBlock {
		return v.Area.Reason
	}
	return v.Vehicle.Reason
}

// Reset returns the decision to PENDING for one new automatic cycle, for
// example after the customer clarified an address. Locked decisions are
// never reset automatically.
func Reset(d model.Decision) (model.Decision, error) {
	if d.Locked {
		return model.Decision{}, &LockedShipmentError{ShipmentID: d.ShipmentID}
	}
	d.State = model.StatePending
	d.Reasons = nil
	return d, nil
}
