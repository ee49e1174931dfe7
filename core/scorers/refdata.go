// Package scorers implements the four independent feasibility and risk
// scorers. Each is a pure function of a shipment and one reference dataset;
// none consults weight configuration, another scorer's output or external
// state, which keeps the pipeline deterministic and each scorer testable in
// isolation.
package scorers

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kmehta07/lastmile/core/model"
)

// Congestion level of a locality.
type Congestion int

const (
	CongestionLow Congestion = iota
	CongestionMedium
	CongestionHigh
)

func (c Congestion) String() string {
	switch c {
	case CongestionLow:
		return "LOW"
	case CongestionMedium:
		return "MEDIUM"
	case CongestionHigh:
		return "HIGH"
	default:
		return "unknown"
	}
}

// AreaProfile describes the last-mile conditions of one city/area-type pair.
type AreaProfile struct {
	City                string `yaml:"city"`
	AreaType            string `yaml:"area_type"`
	Difficulty          int    `yaml:"last_mile_difficulty"` // 1 (easy) to 5 (hardest)
	Congestion          string `yaml:"congestion_level"`
	HeavyVehicleAllowed bool   `yaml:"heavy_vehicle_allowed"`
}

func (p AreaProfile) congestion() Congestion {
	switch strings.ToUpper(p.Congestion) {
	case "HIGH":
		return CongestionHigh
	case "MEDIUM":
		return CongestionMedium
	default:
		return CongestionLow
	}
}

// VehicleSpec describes one delivery vehicle class.
type VehicleSpec struct {
	Class        string  `yaml:"class"`
	MaxPayloadKg float64 `yaml:"max_payload_kg"`
	// MinRoad is the narrowest road the class can serve.
	MinRoad string `yaml:"min_road"`
}

// ReferenceData bundles the reference datasets consumed by the area and
// vehicle scorers.
type ReferenceData struct {
	Areas    []AreaProfile `yaml:"areas"`
	Vehicles []VehicleSpec `yaml:"vehicles"`

	areaIndex    map[string]AreaProfile
	vehicleIndex map[model.VehicleClass]VehicleSpec
}

func areaKey(city string, area model.AreaType) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + area.String()
}

func (r *ReferenceData) index() {
	r.areaIndex = make(map[string]AreaProfile, len(r.Areas))
	for _, p := range r.Areas {
		if a, ok := model.ParseAreaType(p.AreaType); ok {
			r.areaIndex[areaKey(p.City, a)] = p
		}
	}
	r.vehicleIndex = make(map[model.VehicleClass]VehicleSpec, len(r.Vehicles))
	for _, v := range r.Vehicles {
		switch strings.ToLower(v.Class) {
		case "bike":
			r.vehicleIndex[model.VehicleBike] = v
		case "van":
			r.vehicleIndex[model.VehicleVan] = v
		case "truck":
			r.vehicleIndex[model.VehicleTruck] = v
		}
	}
}

// AreaProfileFor returns the profile for the given city and area type.
func (r *ReferenceData) AreaProfileFor(city string, area model.AreaType) (AreaProfile, bool) {
	p, ok := r.areaIndex[areaKey(city, area)]
	return p, ok
}

// VehicleSpecFor returns the spec for the given vehicle class.
func (r *ReferenceData) VehicleSpecFor(class model.VehicleClass) (VehicleSpec, bool) {
	s, ok := r.vehicleIndex[class]
	return s, ok
}

// LoadReferenceData reads reference datasets from a YAML file.
func LoadReferenceData(path string) (*ReferenceData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ref ReferenceData
	if err := yaml.Unmarshal(b, &ref); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	if len(ref.Vehicles) == 0 {
		ref.Vehicles = DefaultReferenceData().Vehicles
	}
	ref.index()
	return &ref, nil
}

// DefaultReferenceData returns built-in datasets used when no file is
// configured. The vehicle table always ships with the three classes; the
// area table is empty so unknown localities take the cautious WARN path.
func DefaultReferenceData() *ReferenceData {
	ref := &ReferenceData{
		Vehicles: []VehicleSpec{
			{Class: "bike", MaxPayloadKg: 5, MinRoad: "Narrow"},
			{Class: "van", MaxPayloadKg: 50, MinRoad: "Medium"},
			{Class: "truck", MaxPayloadKg: 500, MinRoad: "Wide"},
		},
	}
	ref.index()
	return ref
}
