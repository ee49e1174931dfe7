package scoring

import (
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scorers"
)

// Config defines the risk engine thresholds. They are configuration, not
// magic literals, so they can be tuned alongside the weights.
type Config struct {
	// MediumThreshold and HighThreshold are the bucket cut points:
	// score < MediumThreshold is Low, score >= HighThreshold is High.
	MediumThreshold int `json:"medium_threshold"`
	HighThreshold   int `json:"high_threshold"`
	// PriorityDampening is subtracted when the priority flag is set.
	PriorityDampening int `json:"priority_dampening"`
	// LowConfidence is the address confidence below which the address
	// factor applies.
	LowConfidence int `json:"low_confidence"`
	// HeavyWeightKg is the chargeable weight above which the weight factor
	// applies.
	HeavyWeightKg float64 `json:"heavy_weight_kg"`
}

// SetDefaults applies the standard thresholds.
func (c *Config) SetDefaults() {
	if c.MediumThreshold == 0 {
		c.MediumThreshold = 40
	}
	if c.HighThreshold == 0 {
		c.HighThreshold = 60
	}
	if c.PriorityDampening == 0 {
		c.PriorityDampening = 5
	}
	if c.LowConfidence == 0 {
		c.LowConfidence = 60
	}
	if c.HeavyWeightKg == 0 {
		c.HeavyWeightKg = 10
	}
}

// BucketFor maps a clamped score to its risk bucket.
func (c Config) BucketFor(score int) model.RiskBucket {
	switch {
	case score >= c.HighThreshold:
		return model.BucketHigh
	case score >= c.MediumThreshold:
		return model.BucketMedium
	default:
		return model.BucketLow
	}
}

// Score combines the shipment, the four scorer verdicts and a weight
// snapshot into a RiskAssessment. It is pure and deterministic for a given
// snapshot; per-factor contributions always sum to the raw score so the
// explanation layer can attribute every point.
func Score(s model.Shipment, v scorers.Verdicts, snap Snapshot, cfg Config, now time.Time) model.RiskAssessment {
	contrib := make(map[model.Factor]int)

	if s.Payment == model.PaymentCOD {
		contrib[model.FactorCOD] = snap.Get(model.FactorCOD)
	}

	if s.AddressConfidence < cfg.LowConfidence {
		contrib[model.FactorAddress] = snap.Get(model.FactorAddress)
	}

	switch v.Weather.Severity {
	case scorers.SeverityHigh:
		contrib[model.FactorWeather] = snap.Get(model.FactorWeather)
	case scorers.SeverityMedium:
		contrib[model.FactorWeather] = snap.Get(model.FactorWeather) / 2
	}

	area := 0
	switch s.Area {
	case model.AreaOldCity:
		area += snap.Get(model.FactorArea)
	case model.AreaSemiUrban, model.AreaRural:
		area += snap.Get(model.FactorArea) / 2
	}
	switch s.Road {
	case model.RoadNarrow:
		area += snap.Get(model.FactorArea)
	case model.RoadMedium:
		area += snap.Get(model.FactorArea) / 2
	}
	if area > 0 {
		contrib[model.FactorArea] = area
	}

	if s.ChargeableWeight() > cfg.HeavyWeightKg {
		contrib[model.FactorWeight] = snap.Get(model.FactorWeight)
	}

	if s.Priority {
		contrib[model.FactorPriority] = -cfg.PriorityDampening
	}

	raw := 0
	for _, c := range contrib {
		raw += c
	}
	total := raw
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return model.RiskAssessment{
		ShipmentID:     s.ID,
		Total:          total,
		Raw:            raw,
		Contributions:  contrib,
		Bucket:         cfg.BucketFor(total),
		WeightsVersion: snap.Version,
		GeneratedAt:    now,
	}
}
