package model

import "time"

// Factor names a tunable risk weight. The string values double as the keys
// used in weight configuration files and audit logs.
type Factor string

const (
	FactorCOD     Factor = "cod_risk"
	FactorAddress Factor = "address_risk"
	FactorWeather Factor = "weather_risk"
	FactorArea    Factor = "area_risk"
	FactorWeight  Factor = "weight_risk"

	// FactorPriority is the fixed priority dampening. It appears in
	// contribution maps but is not a tunable weight.
	FactorPriority Factor = "priority"
)

// CanonicalFactors lists the tunable factors in their canonical order. The
// learning loop iterates factors in this order and explanations use it to
// break contribution ties.
var CanonicalFactors = []Factor{
	FactorAddress,
	FactorWeather,
	FactorArea,
	FactorCOD,
	FactorWeight,
}

// RiskBucket is the coarse tier derived from a risk score.
type RiskBucket int

const (
	BucketLow RiskBucket = iota
	BucketMedium
	BucketHigh
)

func (b RiskBucket) String() string {
	switch b {
	case BucketLow:
		return "Low"
	case BucketMedium:
		return "Medium"
	case BucketHigh:
		return "High"
	default:
		return "unknown"
	}
}

// ParseRiskBucket converts a textual bucket name.
func ParseRiskBucket(s string) (RiskBucket, bool) {
	switch s {
	case "Low", "LOW", "low":
		return BucketLow, true
	case "Medium", "MEDIUM", "medium":
		return BucketMedium, true
	case "High", "HIGH", "high":
		return BucketHigh, true
	default:
		return 0, false
	}
}

// RiskAssessment is the authoritative scoring result for a shipment. One
// assessment is current per shipment; recomputation replaces it unless the
// shipment is locked.
type RiskAssessment struct {
	ShipmentID string
	// Total is the clamped score in [0,100].
	Total int
	// Raw is the unclamped sum of contributions. Contributions always sum
	// to Raw; Total differs only when clamping applied.
	Raw           int
	Contributions map[Factor]int
	Bucket        RiskBucket
	// WeightsVersion records the weight snapshot the score was computed
	// against, for reproducibility.
	WeightsVersion int64
	GeneratedAt    time.Time
}

// ClampAdjustment returns the number of points removed (or added) by
// clamping, so that Total + ClampAdjustment == Raw holds for every
// assessment.
func (a RiskAssessment) ClampAdjustment() int {
	return a.Raw - a.Total
}
