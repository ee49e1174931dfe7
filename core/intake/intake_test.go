package intake

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kmehta07/lastmile/core/model"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func validSubmission() Submission {
	return Submission{
		ID:            "SHP-1",
		WeightKg:      3,
		LengthCm:      20,
		WidthCm:       15,
		HeightCm:      10,
		DeclaredValue: 500,
		Payment:       "Prepaid",
		AreaType:      "Urban",
		RoadAccess:    "Wide",
		Address:       "Flat 12, Green Residency, near City Mall, 560001",
		City:          "Metroville",
		DeliveryDate:  "2025-06-04",
	}
}

func TestValidate_Accepts(t *testing.T) {
	s, err := Validate(validSubmission(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "SHP-1" {
		t.Fatalf("id not preserved: %s", s.ID)
	}
	if s.Payment != model.PaymentPrepaid || s.Area != model.AreaUrban || s.Road != model.RoadWide {
		t.Fatalf("categorical fields not normalized: %#v", s)
	}
	if s.Status != model.StatePending {
		t.Fatalf("new shipment must be pending, got %s", s.Status)
	}
	// 20*15*10/5000 = 0.6 volumetric; actual weight dominates.
	if s.VolumetricKg != 0.6 {
		t.Fatalf("volumetric = %v, want 0.6", s.VolumetricKg)
	}
	if s.ChargeableWeight() != 3 {
		t.Fatalf("chargeable = %v, want 3", s.ChargeableWeight())
	}
}

func TestValidate_GeneratesID(t *testing.T) {
	sub := validSubmission()
	sub.ID = ""
	s, err := Validate(sub, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected a generated id")
	}
}

func TestValidate_VolumetricDominates(t *testing.T) {
	sub := validSubmission()
	sub.WeightKg = 2
	sub.LengthCm, sub.WidthCm, sub.HeightCm = 100, 50, 40 // 40kg volumetric
	s, err := Validate(sub, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ChargeableWeight() != 40 {
		t.Fatalf("chargeable = %v, want 40", s.ChargeableWeight())
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	sub := Submission{
		WeightKg:      -1,
		DeclaredValue: -5,
		Payment:       "bitcoin",
		AreaType:      "Suburb",
		RoadAccess:    "Dirt",
		DeliveryDate:  "junk",
	}
	_, err := Validate(sub, testNow)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	fields := map[string]bool{}
	for _, v := range verr.Violations {
		fields[v.Field] = true
	}
	for _, want := range []string{
		"weight_kg", "dimensions", "declared_value", "payment_type",
		"area_type", "road_access", "address", "destination_city", "delivery_date",
	} {
		if !fields[want] {
			t.Errorf("missing violation for %s; got %v", want, verr.Violations)
		}
	}
}

func TestValidate_PastDeliveryDate(t *testing.T) {
	sub := validSubmission()
	sub.DeliveryDate = "2025-05-20"
	_, err := Validate(sub, testNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0].Field != "delivery_date" {
		t.Fatalf("unexpected violations: %v", verr.Violations)
	}
	if !strings.Contains(verr.Violations[0].Message, "past") {
		t.Fatalf("unexpected message: %s", verr.Violations[0].Message)
	}
}

func TestConfidenceScore(t *testing.T) {
	cases := []struct {
		name    string
		address string
		area    model.AreaType
		road    model.RoadAccess
		want    int
	}{
		{
			// base 50 + two landmarks 30 + pincode 10
			name:    "two landmarks with pincode",
			address: "Opposite City Hospital, near Central Market, 110011",
			area:    model.AreaUrban,
			road:    model.RoadWide,
			want:    90,
		},
		{
			// base 50 + one landmark 20
			name:    "single landmark",
			address: "12th Cross, behind the temple",
			area:    model.AreaUrban,
			road:    model.RoadWide,
			want:    70,
		},
		{
			// base 50 - vague 10
			name:    "vague without landmark",
			address: "near the big tree, ask anyone",
			area:    model.AreaUrban,
			road:    model.RoadWide,
			want:    40,
		},
		{
			// base 50 - 15 old city - 20 narrow road
			name:    "old city narrow lane",
			address: "Lane 4, third house on the left",
			area:    model.AreaOldCity,
			road:    model.RoadNarrow,
			want:    15,
		},
		{
			// base 50 + house number 10 + pincode 10 - rural 10
			name:    "rural with house number and pin",
			address: "Plot 42, Village Road, 581301",
			area:    model.AreaRural,
			road:    model.RoadMedium,
			want:    60,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ConfidenceScore(tc.address, tc.area, tc.road)
			if got != tc.want {
				t.Fatalf("ConfidenceScore = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestConfidenceScore_Deterministic(t *testing.T) {
	a := ConfidenceScore("near school, 400001", model.AreaSemiUrban, model.RoadMedium)
	b := ConfidenceScore("near school, 400001", model.AreaSemiUrban, model.RoadMedium)
	if a != b {
		t.Fatalf("score not deterministic: %d vs %d", a, b)
	}
	if a < 0 || a > 100 {
		t.Fatalf("score out of range: %d", a)
	}
}
