package scorers

import (
	"time"

	"github.com/kmehta07/lastmile/core/model"
)

// PriorityTier classifies a shipment's operational urgency.
type PriorityTier int

const (
	PriorityLow PriorityTier = iota
	PriorityMedium
	PriorityHigh
)

func (t PriorityTier) String() string {
	switch t {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "unknown"
	}
}

// Priority classification thresholds.
const (
	highValueThreshold = 10000.0
	lowValueThreshold  = 1000.0
	urgentWindow       = 24 * time.Hour
	relaxedWindow      = 72 * time.Hour
)

// PriorityVerdict is the urgency classification result.
type PriorityVerdict struct {
	Tier   PriorityTier
	Reason string
}

// ClassifyPriority derives the urgency tier from the declared priority flag,
// the declared value and the time remaining to the promised delivery date.
// The reference time is passed in so the classification is deterministic.
func ClassifyPriority(s model.Shipment, now time.Time) (PriorityVerdict, error) {
	remaining := s.DeliveryDate.Sub(now)

	switch {
	case s.Priority:
		return PriorityVerdict{Tier: PriorityHigh, Reason: "seller flagged the shipment as priority"}, nil
	case s.DeclaredValue >= highValueThreshold:
		return PriorityVerdict{Tier: PriorityHigh, Reason: "high declared value"}, nil
	case !s.DeliveryDate.IsZero() && remaining <= urgentWindow:
		return PriorityVerdict{Tier: PriorityHigh, Reason: "promised delivery within 24 hours"}, nil
	case !s.DeliveryDate.IsZero() && remaining > relaxedWindow && s.DeclaredValue < lowValueThreshold:
		return PriorityVerdict{Tier: PriorityLow, Reason: "non-urgent, operationally flexible shipment"}, nil
	default:
		return PriorityVerdict{Tier: PriorityMedium, Reason: "standard priority shipment"}, nil
	}
}

// Verdicts bundles the four scorer outputs consumed by the risk engine and
// the decision gate.
type Verdicts struct {
	Area     AreaVerdict
	Weather  WeatherVerdict
	Vehicle  VehicleVerdict
	Priority PriorityVerdict
}

// HardBlock reports whether any scorer issued a verdict that forces a
// RESCHEDULE regardless of the numeric risk score.
func (v Verdicts) HardBlock() bool {
	return v.Area.Status == AreaBlock || v.Vehicle.Status == VehicleReject
}
