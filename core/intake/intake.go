// Package intake validates raw shipment submissions and produces canonical
// Shipment records. Validation reports every violated field, not just the
// first, so sellers can fix a submission in one pass.
package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmehta07/lastmile/core/model"
)

// Volumetric divisor used to convert parcel dimensions to kilograms.
const volumetricDivisor = 5000.0

// Submission is a raw shipment as received from the seller surface. Numeric
// fields arrive as numbers, categorical fields as free text to be
// normalized.
type Submission struct {
	ID            string  `json:"id"`
	WeightKg      float64 `json:"weight_kg"`
	LengthCm      float64 `json:"length_cm"`
	WidthCm       float64 `json:"width_cm"`
	HeightCm      float64 `json:"height_cm"`
	DeclaredValue float64 `json:"declared_value"`
	Payment       string  `json:"payment_type"`
	Priority      bool    `json:"priority"`
	AreaType      string  `json:"area_type"`
	RoadAccess    string  `json:"road_access"`
	Address       string  `json:"address"`
	City          string  `json:"destination_city"`
	// DeliveryDate is the promised date in 2006-01-02 form.
	DeliveryDate string `json:"delivery_date"`
}

// FieldError describes one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field violation found in a submission.
type ValidationError struct {
	Violations []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "invalid submission: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Violations = append(e.Violations, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate normalizes a submission into a canonical Shipment. It returns a
// *ValidationError listing all violations when the submission is rejected.
// The returned shipment is deterministic for a given submission except for
// the generated id and creation timestamp.
func Validate(sub Submission, now time.Time) (model.Shipment, error) {
	verr := &ValidationError{}

	if sub.WeightKg <= 0 {
		verr.add("weight_kg", "must be positive, got %v", sub.WeightKg)
	}
	if sub.LengthCm <= 0 || sub.WidthCm <= 0 || sub.HeightCm <= 0 {
		verr.add("dimensions", "length, width and height must all be positive")
	}
	if sub.DeclaredValue < 0 {
		verr.add("declared_value", "must not be negative, got %v", sub.DeclaredValue)
	}

	payment, ok := model.ParsePaymentType(strings.TrimSpace(sub.Payment))
	if !ok {
		verr.add("payment_type", "unrecognized value %q", sub.Payment)
	}
	area, ok := model.ParseAreaType(strings.TrimSpace(sub.AreaType))
	if !ok {
		verr.add("area_type", "unrecognized value %q", sub.AreaType)
	}
	road, ok := model.ParseRoadAccess(strings.TrimSpace(sub.RoadAccess))
	if !ok {
		verr.add("road_access", "unrecognized value %q", sub.RoadAccess)
	}

	address := strings.TrimSpace(sub.Address)
	if address == "" {
		verr.add("address", "is required")
	}
	city := strings.TrimSpace(sub.City)
	if city == "" {
		verr.add("destination_city", "is required")
	}

	var deliveryDate time.Time
	if sub.DeliveryDate == "" {
		verr.add("delivery_date", "is required")
	} else {
		d, err := time.Parse("2006-01-02", sub.DeliveryDate)
		if err != nil {
			verr.add("delivery_date", "must be in 2006-01-02 form, got %q", sub.DeliveryDate)
		} else if d.Before(now.Truncate(24 * time.Hour)) {
			verr.add("delivery_date", "cannot be in the past")
		} else {
			deliveryDate = d
		}
	}

	if len(verr.Violations) > 0 {
		return model.Shipment{}, verr
	}

	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}

	volumetric := sub.LengthCm * sub.WidthCm * sub.HeightCm / volumetricDivisor

	return model.Shipment{
		ID:                id,
		WeightKg:          sub.WeightKg,
		VolumetricKg:      volumetric,
		DeclaredValue:     sub.DeclaredValue,
		Payment:           payment,
		Priority:          sub.Priority,
		Area:              area,
		Road:              road,
		Address:           address,
		AddressConfidence: ConfidenceScore(address, area, road),
		City:              city,
		DeliveryDate:      deliveryDate,
		Status:            model.StatePending,
		CreatedAt:         now,
	}, nil
}
