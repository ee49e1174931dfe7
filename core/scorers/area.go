package scorers

import (
	"fmt"

	"github.com/kmehta07/lastmile/core/model"
)

// AreaStatus is the feasibility verdict for the destination area.
type AreaStatus int

const (
	AreaAllow AreaStatus = iota
	AreaWarn
	AreaBlock
)

func (s AreaStatus) String() string {
	switch s {
	case AreaAllow:
		return "ALLOW"
	case AreaWarn:
		return "WARN"
	case AreaBlock:
		return "BLOCK"
	default:
		return "unknown"
	}
}

// AreaVerdict is the area feasibility result. RiskDelta grades the severity
// on a 0-5 scale and feeds the delay explanation.
type AreaVerdict struct {
	Status    AreaStatus
	RiskDelta int
	Reason    string
}

// EvaluateArea determines last-mile feasibility from the area type, road
// accessibility and the locality profile dataset.
func EvaluateArea(s model.Shipment, ref *ReferenceData) (AreaVerdict, error) {
	if ref == nil {
		return AreaVerdict{}, fmt.Errorf("area scorer: reference data not loaded")
	}

	// A narrow street that needs anything heavier than a bike is an access
	// failure no weight tuning may soften.
	if s.Road == model.RoadNarrow && classForWeight(s.ChargeableWeight()) != model.VehicleBike {
		return AreaVerdict{
			Status:    AreaBlock,
			RiskDelta: 5,
			Reason:    "narrow road cannot take the vehicle class this load requires",
		}, nil
	}

	profile, ok := ref.AreaProfileFor(s.City, s.Area)
	if !ok {
		// No locality data: be cautious rather than optimistic.
		v := AreaVerdict{Status: AreaWarn, RiskDelta: 3, Reason: "no locality data; manual review advised"}
		if s.Area == model.AreaUrban && s.Road == model.RoadWide {
			v = AreaVerdict{Status: AreaAllow, RiskDelta: 1, Reason: "area suitable for delivery"}
		}
		return v, nil
	}

	switch {
	case profile.Difficulty >= 4 && profile.congestion() == CongestionHigh:
		return AreaVerdict{
			Status:    AreaBlock,
			RiskDelta: profile.Difficulty,
			Reason:    "high congestion and difficult last-mile access",
		}, nil
	case s.Area == model.AreaOldCity:
		return AreaVerdict{
			Status:    AreaWarn,
			RiskDelta: maxInt(profile.Difficulty, 3),
			Reason:    "old city lanes slow the last mile",
		}, nil
	case profile.Difficulty >= 3:
		return AreaVerdict{
			Status:    AreaWarn,
			RiskDelta: profile.Difficulty,
			Reason:    "moderate last-mile difficulty",
		}, nil
	default:
		return AreaVerdict{
			Status:    AreaAllow,
			RiskDelta: profile.Difficulty,
			Reason:    "area suitable for delivery",
		}, nil
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
