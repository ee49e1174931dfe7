package metrics

import (
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scoring"
)

// DecisionResult represents one dispatch decision to be recorded.
type DecisionResult struct {
	ShipmentID string
	Decision   model.DecisionKind
	Source     model.DecisionSource
	Score      int
	Bucket     model.RiskBucket
	Forced     bool
	Time       time.Time
}

// LearningResult captures the outcome of one learning cycle.
type LearningResult struct {
	Adjustments []scoring.Adjustment
	Outcomes    int
	Time        time.Time
}

// MetricsSink records pipeline results for observability purposes.
type MetricsSink interface {
	RecordDecision(res DecisionResult) error
	RecordLearningCycle(res LearningResult) error
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) RecordDecision(DecisionResult) error      { return nil }
func (NopSink) RecordLearningCycle(LearningResult) error { return nil }
