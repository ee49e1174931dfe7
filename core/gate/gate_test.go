package gate

import (
	"errors"
	"testing"
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scorers"
	"github.com/kmehta07/lastmile/core/scoring"
)

var gateNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func gateCfg() scoring.Config {
	cfg := scoring.Config{}
	cfg.SetDefaults()
	return cfg
}

func assessment(total int, bucket model.RiskBucket) model.RiskAssessment {
	return model.RiskAssessment{ShipmentID: "SHP-1", Total: total, Bucket: bucket}
}

func TestDecide_KindByScore(t *testing.T) {
	cases := []struct {
		total int
		want  model.DecisionKind
		state model.DecisionState
	}{
		{0, model.DecideDispatch, model.StateDispatch},
		{39, model.DecideDispatch, model.StateDispatch},
		{40, model.DecideDelay, model.StateDelay},
		{59, model.DecideDelay, model.StateDelay},
		{60, model.DecideReschedule, model.StateReschedule},
		{100, model.DecideReschedule, model.StateReschedule},
	}
	for _, tc := range cases {
		d := Decide(assessment(tc.total, gateCfg().BucketFor(tc.total)), scorers.Verdicts{}, gateCfg(), nil, gateNow)
		if d.Kind != tc.want {
			t.Errorf("score %d: kind = %s, want %s", tc.total, d.Kind, tc.want)
		}
		if d.State != tc.state {
			t.Errorf("score %d: state = %s, want %s", tc.total, d.State, tc.state)
		}
		if d.Source != model.SourceAuto {
			t.Errorf("score %d: source = %s, want auto", tc.total, d.Source)
		}
	}
}

func TestDecide_HardBlockForcesReschedule(t *testing.T) {
	v := scorers.Verdicts{
		Area: scorers.AreaVerdict{Status: scorers.AreaBlock, Reason: "narrow road with heavy parcel"},
	}
	d := Decide(assessment(5, model.BucketLow), v, gateCfg(), []string{"minor note"}, gateNow)
	if d.Kind != model.DecideReschedule {
		t.Fatalf("kind = %s, want Reschedule despite low score", d.Kind)
	}
	if len(d.Reasons) != 2 || d.Reasons[0] != "narrow road with heavy parcel" {
		t.Fatalf("block reason not prepended: %v", d.Reasons)
	}
}

func TestDecide_VehicleRejectForcesReschedule(t *testing.T) {
	v := scorers.Verdicts{
		Vehicle: scorers.VehicleVerdict{Status: scorers.VehicleReject, Reason: "payload exceeds truck capacity"},
	}
	d := Decide(assessment(0, model.BucketLow), v, gateCfg(), nil, gateNow)
	if d.Kind != model.DecideReschedule {
		t.Fatalf("kind = %s, want Reschedule", d.Kind)
	}
	if d.Reasons[0] != "payload exceeds truck capacity" {
		t.Fatalf("reasons = %v", d.Reasons)
	}
}

func TestReset(t *testing.T) {
	d := model.Decision{
		ShipmentID: "SHP-1",
		Kind:       model.DecideDelay,
		State:      model.StateDelay,
		Reasons:    []string{"cash on delivery raises the failure risk"},
	}
	got, err := Reset(d)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got.State != model.StatePending {
		t.Fatalf("state = %s, want Pending", got.State)
	}
	if got.Reasons != nil {
		t.Fatalf("reasons survived reset: %v", got.Reasons)
	}
}

func TestReset_LockedDecision(t *testing.T) {
	d := model.Decision{ShipmentID: "SHP-1", Locked: true}
	_, err := Reset(d)
	var locked *LockedShipmentError
	if !errors.As(err, &locked) {
		t.Fatalf("expected *LockedShipmentError, got %v", err)
	}
	if locked.ShipmentID != "SHP-1" {
		t.Fatalf("shipment id = %s", locked.ShipmentID)
	}
}
