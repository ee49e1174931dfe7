package events

import (
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scoring"
)

// DecisionEvent is published when the gate takes an automatic decision.
type DecisionEvent struct {
	Decision model.Decision
}

// NotificationEvent carries a DELAY or RESCHEDULE notice for outbound
// channels. Delivery format is out of scope; consumers send and log.
type NotificationEvent struct {
	ShipmentID string    `json:"shipment_id"`
	Decision   string    `json:"decision"`
	Reasons    []string  `json:"reasons"`
	// ETAMultiplier is the recommended ETA buffer from the weather verdict.
	ETAMultiplier float64   `json:"eta_multiplier"`
	IssuedAt      time.Time `json:"issued_at"`
}

// OverrideEvent is published when a human override is applied.
type OverrideEvent struct {
	Override model.Override
}

// LearningEvent is published when a learning cycle completes. Adjustments
// may be empty when no factor met the evidence threshold.
type LearningEvent struct {
	Adjustments []scoring.Adjustment
	Outcomes    int
	CompletedAt time.Time
}
