package scoring

import (
	"reflect"
	"testing"
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scorers"
)

var scoreNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func defaultCfg() Config {
	cfg := Config{}
	cfg.SetDefaults()
	return cfg
}

func defaultSnap() Snapshot {
	return NewStore().Snapshot()
}

func cleanShipment() model.Shipment {
	return model.Shipment{
		ID:                "SHP-1",
		WeightKg:          3,
		Payment:           model.PaymentPrepaid,
		Area:              model.AreaUrban,
		Road:              model.RoadWide,
		AddressConfidence: 90,
		City:              "Metroville",
	}
}

func TestScore_CleanShipmentScoresZero(t *testing.T) {
	a := Score(cleanShipment(), scorers.Verdicts{}, defaultSnap(), defaultCfg(), scoreNow)
	if a.Total != 0 {
		t.Fatalf("total = %d, want 0", a.Total)
	}
	if a.Bucket != model.BucketLow {
		t.Fatalf("bucket = %s, want Low", a.Bucket)
	}
	if len(a.Contributions) != 0 {
		t.Fatalf("unexpected contributions: %v", a.Contributions)
	}
}

func TestScore_CompoundingFactors(t *testing.T) {
	// COD, old city, narrow road, low-confidence address, 12kg: every factor
	// except weather fires and the shipment lands deep in the High bucket.
	s := model.Shipment{
		ID:                "SHP-2",
		WeightKg:          12,
		Payment:           model.PaymentCOD,
		Area:              model.AreaOldCity,
		Road:              model.RoadNarrow,
		AddressConfidence: 55,
		City:              "Metroville",
	}
	a := Score(s, scorers.Verdicts{}, defaultSnap(), defaultCfg(), scoreNow)

	want := map[model.Factor]int{
		model.FactorCOD:     15,
		model.FactorAddress: 15,
		model.FactorArea:    30, // old city + narrow road
		model.FactorWeight:  10,
	}
	if !reflect.DeepEqual(a.Contributions, want) {
		t.Fatalf("contributions = %v, want %v", a.Contributions, want)
	}
	if a.Total != 70 {
		t.Fatalf("total = %d, want 70", a.Total)
	}
	if a.Bucket != model.BucketHigh {
		t.Fatalf("bucket = %s, want High", a.Bucket)
	}
}

func TestScore_WeatherOnly(t *testing.T) {
	s := cleanShipment()
	v := scorers.Verdicts{Weather: scorers.WeatherVerdict{Severity: scorers.SeverityHigh, ETAMultiplier: 1.6}}
	a := Score(s, v, defaultSnap(), defaultCfg(), scoreNow)
	if a.Total != 20 {
		t.Fatalf("total = %d, want 20", a.Total)
	}
	if a.Bucket != model.BucketLow {
		t.Fatalf("bucket = %s, want Low", a.Bucket)
	}

	v.Weather.Severity = scorers.SeverityMedium
	a = Score(s, v, defaultSnap(), defaultCfg(), scoreNow)
	if a.Total != 10 {
		t.Fatalf("medium severity total = %d, want 10", a.Total)
	}
}

func TestScore_PriorityDampening(t *testing.T) {
	s := cleanShipment()
	s.Payment = model.PaymentCOD
	s.Priority = true
	a := Score(s, scorers.Verdicts{}, defaultSnap(), defaultCfg(), scoreNow)
	if a.Total != 10 {
		t.Fatalf("total = %d, want 15 - 5 = 10", a.Total)
	}
	if a.Contributions[model.FactorPriority] != -5 {
		t.Fatalf("priority contribution = %d, want -5", a.Contributions[model.FactorPriority])
	}
}

func TestScore_ClampAtZero(t *testing.T) {
	s := cleanShipment()
	s.Priority = true
	a := Score(s, scorers.Verdicts{}, defaultSnap(), defaultCfg(), scoreNow)
	if a.Raw != -5 {
		t.Fatalf("raw = %d, want -5", a.Raw)
	}
	if a.Total != 0 {
		t.Fatalf("total = %d, want clamp to 0", a.Total)
	}
	if a.Total+a.ClampAdjustment() != a.Raw {
		t.Fatalf("clamp accounting broken: total %d + adj %d != raw %d", a.Total, a.ClampAdjustment(), a.Raw)
	}
}

func TestScore_ContributionsSumToRaw(t *testing.T) {
	shipments := []model.Shipment{
		cleanShipment(),
		{ID: "a", WeightKg: 12, Payment: model.PaymentCOD, Area: model.AreaOldCity, Road: model.RoadNarrow, AddressConfidence: 40},
		{ID: "b", WeightKg: 8, Payment: model.PaymentPrepaid, Area: model.AreaRural, Road: model.RoadMedium, AddressConfidence: 59, Priority: true},
	}
	for _, s := range shipments {
		a := Score(s, scorers.Verdicts{}, defaultSnap(), defaultCfg(), scoreNow)
		sum := 0
		for _, c := range a.Contributions {
			sum += c
		}
		if sum != a.Raw {
			t.Errorf("%s: contributions sum %d != raw %d", s.ID, sum, a.Raw)
		}
	}
}

func TestScore_BucketBoundaries(t *testing.T) {
	cfg := defaultCfg()
	cases := []struct {
		score int
		want  model.RiskBucket
	}{
		{0, model.BucketLow},
		{39, model.BucketLow},
		{40, model.BucketMedium},
		{59, model.BucketMedium},
		{60, model.BucketHigh},
		{100, model.BucketHigh},
	}
	for _, tc := range cases {
		if got := cfg.BucketFor(tc.score); got != tc.want {
			t.Errorf("BucketFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := model.Shipment{
		ID: "SHP-3", WeightKg: 12, Payment: model.PaymentCOD,
		Area: model.AreaOldCity, Road: model.RoadNarrow, AddressConfidence: 40,
	}
	snap := defaultSnap()
	a := Score(s, scorers.Verdicts{}, snap, defaultCfg(), scoreNow)
	b := Score(s, scorers.Verdicts{}, snap, defaultCfg(), scoreNow)
	if a.Total != b.Total || !reflect.DeepEqual(a.Contributions, b.Contributions) {
		t.Fatalf("same inputs must produce identical assessments: %v vs %v", a, b)
	}
	if a.WeightsVersion != snap.Version {
		t.Fatalf("weights version %d not recorded, want %d", a.WeightsVersion, snap.Version)
	}
}
