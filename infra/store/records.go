package store

import (
	"time"

	"github.com/kmehta07/lastmile/core/model"
)

// decisionRecord is the JSON document shape stored in the decision audit
// log. Enums are persisted as their textual names so the log stays readable
// outside the service.
type decisionRecord struct {
	ShipmentID string    `json:"shipment_id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	State      string    `json:"state"`
	RiskScore  int       `json:"risk_score"`
	Bucket     string    `json:"bucket"`
	Reasons    []string  `json:"reasons,omitempty"`
	Locked     bool      `json:"locked"`
	Version    int64     `json:"version"`
	DecidedAt  time.Time `json:"decided_at"`
}

func decisionDoc(d model.Decision) decisionRecord {
	return decisionRecord{
		ShipmentID: d.ShipmentID,
		Kind:       d.Kind.String(),
		Source:     d.Source.String(),
		State:      d.State.String(),
		RiskScore:  d.RiskScore,
		Bucket:     d.Bucket.String(),
		Reasons:    d.Reasons,
		Locked:     d.Locked,
		Version:    d.Version,
		DecidedAt:  d.DecidedAt,
	}
}

func (r decisionRecord) toModel() model.Decision {
	kind, _ := model.ParseDecisionKind(r.Kind)
	bucket, _ := model.ParseRiskBucket(r.Bucket)
	d := model.Decision{
		ShipmentID: r.ShipmentID,
		Kind:       kind,
		Source:     model.SourceAuto,
		RiskScore:  r.RiskScore,
		Bucket:     bucket,
		Reasons:    r.Reasons,
		Locked:     r.Locked,
		Version:    r.Version,
		DecidedAt:  r.DecidedAt,
	}
	if r.Source == model.SourceHuman.String() {
		d.Source = model.SourceHuman
	}
	switch r.State {
	case model.StateDispatch.String():
		d.State = model.StateDispatch
	case model.StateDelay.String():
		d.State = model.StateDelay
	case model.StateReschedule.String():
		d.State = model.StateReschedule
	case model.StateOverridden.String():
		d.State = model.StateOverridden
	default:
		d.State = model.StatePending
	}
	return d
}

type overrideRecord struct {
	ID         string    `json:"id"`
	ShipmentID string    `json:"shipment_id"`
	Prior      string    `json:"prior"`
	New        string    `json:"new"`
	Actor      string    `json:"actor"`
	Authority  string    `json:"authority"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

func overrideDoc(o model.Override) overrideRecord {
	return overrideRecord{
		ID:         o.ID,
		ShipmentID: o.ShipmentID,
		Prior:      o.Prior.String(),
		New:        o.New.String(),
		Actor:      o.Actor,
		Authority:  o.Authority.String(),
		Reason:     o.Reason,
		Timestamp:  o.Timestamp,
	}
}

func (r overrideRecord) toModel() model.Override {
	prior, _ := model.ParseDecisionKind(r.Prior)
	next, _ := model.ParseDecisionKind(r.New)
	authority, _ := model.ParseAuthority(r.Authority)
	return model.Override{
		ID:         r.ID,
		ShipmentID: r.ShipmentID,
		Prior:      prior,
		New:        next,
		Actor:      r.Actor,
		Authority:  authority,
		Reason:     r.Reason,
		Timestamp:  r.Timestamp,
	}
}

type outcomeRecord struct {
	ShipmentID        string         `json:"shipment_id"`
	PredictedDecision string         `json:"predicted_decision"`
	PredictedBucket   string         `json:"predicted_bucket"`
	PredictedScore    int            `json:"predicted_score"`
	Contributions     map[string]int `json:"contributions,omitempty"`
	Result            string         `json:"result"`
	Overridden        bool           `json:"overridden"`
	RecordedAt        time.Time      `json:"recorded_at"`
}

func outcomeDoc(o model.Outcome) outcomeRecord {
	contrib := make(map[string]int, len(o.Contributions))
	for f, v := range o.Contributions {
		contrib[string(f)] = v
	}
	return outcomeRecord{
		ShipmentID:        o.ShipmentID,
		PredictedDecision: o.PredictedDecision.String(),
		PredictedBucket:   o.PredictedBucket.String(),
		PredictedScore:    o.PredictedScore,
		Contributions:     contrib,
		Result:            o.Result.String(),
		Overridden:        o.Overridden,
		RecordedAt:        o.RecordedAt,
	}
}

func (r outcomeRecord) toModel() model.Outcome {
	decision, _ := model.ParseDecisionKind(r.PredictedDecision)
	bucket, _ := model.ParseRiskBucket(r.PredictedBucket)
	result, _ := model.ParseDeliveryResult(r.Result)
	contrib := make(map[model.Factor]int, len(r.Contributions))
	for f, v := range r.Contributions {
		contrib[model.Factor(f)] = v
	}
	return model.Outcome{
		ShipmentID:        r.ShipmentID,
		PredictedDecision: decision,
		PredictedBucket:   bucket,
		PredictedScore:    r.PredictedScore,
		Contributions:     contrib,
		Result:            result,
		Overridden:        r.Overridden,
		RecordedAt:        r.RecordedAt,
	}
}
