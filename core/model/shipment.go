package model

import (
	"fmt"
	"time"
)

// PaymentType defines how the shipment is paid for.
type PaymentType int

const (
	PaymentCOD PaymentType = iota
	PaymentPrepaid
)

// String returns a human-readable representation of the payment type.
func (p PaymentType) String() string {
	switch p {
	case PaymentCOD:
		return "COD"
	case PaymentPrepaid:
		return "Prepaid"
	default:
		return "unknown"
	}
}

// ParsePaymentType converts a raw submission value into a PaymentType.
func ParsePaymentType(s string) (PaymentType, bool) {
	switch s {
	case "COD", "cod":
		return PaymentCOD, true
	case "Prepaid", "PREPAID", "prepaid":
		return PaymentPrepaid, true
	default:
		return 0, false
	}
}

// AreaType classifies the destination locality.
type AreaType int

const (
	AreaUrban AreaType = iota
	AreaOldCity
	AreaSemiUrban
	AreaRural
)

func (a AreaType) String() string {
	switch a {
	case AreaUrban:
		return "Urban"
	case AreaOldCity:
		return "OldCity"
	case AreaSemiUrban:
		return "SemiUrban"
	case AreaRural:
		return "Rural"
	default:
		return "unknown"
	}
}

// ParseAreaType converts a raw submission value into an AreaType.
func ParseAreaType(s string) (AreaType, bool) {
	switch s {
	case "Urban", "URBAN", "urban":
		return AreaUrban, true
	case "OldCity", "OLD_CITY", "old_city":
		return AreaOldCity, true
	case "SemiUrban", "SEMI_URBAN", "semi_urban":
		return AreaSemiUrban, true
	case "Rural", "RURAL", "rural":
		return AreaRural, true
	default:
		return 0, false
	}
}

// RoadAccess describes how accessible the destination street is.
type RoadAccess int

const (
	RoadWide RoadAccess = iota
	RoadMedium
	RoadNarrow
)

func (r RoadAccess) String() string {
	switch r {
	case RoadWide:
		return "Wide"
	case RoadMedium:
		return "Medium"
	case RoadNarrow:
		return "Narrow"
	default:
		return "unknown"
	}
}

// ParseRoadAccess converts a raw submission value into a RoadAccess.
func ParseRoadAccess(s string) (RoadAccess, bool) {
	switch s {
	case "Wide", "WIDE", "wide":
		return RoadWide, true
	case "Medium", "MEDIUM", "medium":
		return RoadMedium, true
	case "Narrow", "NARROW", "narrow":
		return RoadNarrow, true
	default:
		return 0, false
	}
}

// VehicleClass is the delivery vehicle category considered for the last mile.
type VehicleClass int

const (
	VehicleBike VehicleClass = iota
	VehicleVan
	VehicleTruck
)

func (v VehicleClass) String() string {
	switch v {
	case VehicleBike:
		return "Bike"
	case VehicleVan:
		return "Van"
	case VehicleTruck:
		return "Truck"
	default:
		return "unknown"
	}
}

// Shipment is the canonical, validated record flowing through the pipeline.
// It is immutable once accepted; only Status and RiskScore are updated as
// decisions are taken.
type Shipment struct {
	ID            string
	WeightKg      float64
	VolumetricKg  float64
	DeclaredValue float64
	Payment       PaymentType
	Priority      bool
	Area          AreaType
	Road          RoadAccess
	Address       string
	// AddressConfidence is derived from the address text at intake, 0-100.
	AddressConfidence int
	City              string
	DeliveryDate      time.Time

	Status    DecisionState
	RiskScore int
	CreatedAt time.Time
}

// ChargeableWeight returns the weight used for vehicle selection and risk
// scoring: the greater of actual and volumetric weight.
func (s Shipment) ChargeableWeight() float64 {
	if s.VolumetricKg > s.WeightKg {
		return s.VolumetricKg
	}
	return s.WeightKg
}

// Validate checks that the shipment record is internally sound. Intake
// performs the full field validation; this guards pipeline entry points.
func (s Shipment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("shipment id is required")
	}
	if s.WeightKg <= 0 {
		return fmt.Errorf("shipment weight must be positive")
	}
	if s.AddressConfidence < 0 || s.AddressConfidence > 100 {
		return fmt.Errorf("address confidence out of range: %d", s.AddressConfidence)
	}
	return nil
}
