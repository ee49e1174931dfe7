package scorers

import (
	"fmt"

	"github.com/kmehta07/lastmile/core/model"
)

// VehicleStatus is the vehicle feasibility verdict.
type VehicleStatus int

const (
	VehicleAccept VehicleStatus = iota
	VehicleWarn
	VehicleReject
)

func (s VehicleStatus) String() string {
	switch s {
	case VehicleAccept:
		return "ACCEPT"
	case VehicleWarn:
		return "WARN"
	case VehicleReject:
		return "REJECT"
	default:
		return "unknown"
	}
}

// VehicleVerdict reports whether the primary vehicle class can serve the
// shipment and suggests an alternative when it cannot.
type VehicleVerdict struct {
	Status    VehicleStatus
	Selected  model.VehicleClass
	Suggested model.VehicleClass
	// Split is set when no single vehicle can carry the load and a split
	// delivery is advised.
	Split  bool
	Reason string
}

// classForWeight picks the default vehicle class for a chargeable weight.
func classForWeight(kg float64) model.VehicleClass {
	switch {
	case kg <= 5:
		return model.VehicleBike
	case kg <= 50:
		return model.VehicleVan
	default:
		return model.VehicleTruck
	}
}

func roadRank(r model.RoadAccess) int {
	// Wider roads rank higher.
	switch r {
	case model.RoadWide:
		return 2
	case model.RoadMedium:
		return 1
	default:
		return 0
	}
}

func minRoadRank(spec VehicleSpec) int {
	if r, ok := model.ParseRoadAccess(spec.MinRoad); ok {
		return roadRank(r)
	}
	return 0
}

// EvaluateVehicle determines whether the vehicle class implied by the
// shipment weight can physically reach the destination.
func EvaluateVehicle(s model.Shipment, ref *ReferenceData) (VehicleVerdict, error) {
	if ref == nil {
		return VehicleVerdict{}, fmt.Errorf("vehicle scorer: reference data not loaded")
	}

	selected := classForWeight(s.ChargeableWeight())
	spec, ok := ref.VehicleSpecFor(selected)
	if !ok {
		return VehicleVerdict{
			Status:    VehicleWarn,
			Selected:  selected,
			Suggested: model.VehicleVan,
			Reason:    "unknown vehicle class; manual review required",
		}, nil
	}

	// Hard rejections first: these force a RESCHEDULE at the gate.
	if s.Area == model.AreaOldCity && selected == model.VehicleTruck {
		return VehicleVerdict{
			Status:    VehicleReject,
			Selected:  selected,
			Suggested: model.VehicleVan,
			Split:     true,
			Reason:    "trucks cannot enter old city lanes; split onto vans",
		}, nil
	}
	if s.Road == model.RoadNarrow && selected != model.VehicleBike {
		return VehicleVerdict{
			Status:    VehicleReject,
			Selected:  selected,
			Suggested: model.VehicleBike,
			Split:     s.ChargeableWeight() > 5,
			Reason:    "road too narrow for the required vehicle class",
		}, nil
	}
	if s.ChargeableWeight() > spec.MaxPayloadKg {
		suggested := selected
		if selected != model.VehicleTruck {
			suggested = selected + 1
		}
		return VehicleVerdict{
			Status:    VehicleReject,
			Selected:  selected,
			Suggested: suggested,
			Split:     selected == model.VehicleTruck,
			Reason:    "shipment exceeds the vehicle payload",
		}, nil
	}

	// Soft warnings.
	if roadRank(s.Road) < minRoadRank(spec) {
		suggested := selected
		if selected != model.VehicleBike {
			suggested = selected - 1
		}
		return VehicleVerdict{
			Status:    VehicleWarn,
			Selected:  selected,
			Suggested: suggested,
			Reason:    "vehicle may face access issues on this road",
		}, nil
	}

	return VehicleVerdict{
		Status:    VehicleAccept,
		Selected:  selected,
		Suggested: selected,
		Reason:    "vehicle is suitable for this delivery",
	}, nil
}
