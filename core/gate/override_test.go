package gate

import (
	"errors"
	"testing"

	"github.com/kmehta07/lastmile/core/model"
)

func delayDecision(bucket model.RiskBucket) model.Decision {
	return model.Decision{
		ShipmentID: "SHP-1",
		Kind:       model.DecideDelay,
		Source:     model.SourceAuto,
		State:      model.StateDelay,
		RiskScore:  45,
		Bucket:     bucket,
	}
}

func request(authority model.Authority, reason string) OverrideRequest {
	return OverrideRequest{
		ShipmentID: "SHP-1",
		Proposed:   model.DecideDispatch,
		Actor:      "r.sharma",
		Authority:  authority,
		Reason:     reason,
	}
}

func TestApplyOverride_AuthorityPolicy(t *testing.T) {
	cases := []struct {
		name      string
		authority model.Authority
		bucket    model.RiskBucket
		allowed   bool
	}{
		{"operator low", model.AuthorityOperator, model.BucketLow, false},
		{"operator medium", model.AuthorityOperator, model.BucketMedium, false},
		{"supervisor low", model.AuthoritySupervisor, model.BucketLow, true},
		{"supervisor medium", model.AuthoritySupervisor, model.BucketMedium, true},
		{"supervisor high", model.AuthoritySupervisor, model.BucketHigh, false},
		{"manager high", model.AuthorityManager, model.BucketHigh, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ApplyOverride(delayDecision(tc.bucket), request(tc.authority, "customer confirmed availability"), gateNow)
			var insufficient *InsufficientAuthorityError
			if tc.allowed && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.allowed && !errors.As(err, &insufficient) {
				t.Fatalf("expected *InsufficientAuthorityError, got %v", err)
			}
		})
	}
}

func TestApplyOverride_ShortReason(t *testing.T) {
	_, _, err := ApplyOverride(delayDecision(model.BucketLow), request(model.AuthorityManager, "ok"), gateNow)
	var missing *MissingJustificationError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingJustificationError, got %v", err)
	}
	if missing.Length != 2 {
		t.Fatalf("length = %d, want 2", missing.Length)
	}
}

func TestApplyOverride_AuthorityCheckedBeforeReason(t *testing.T) {
	// An operator with a short reason must fail on authority, not on the
	// justification.
	_, _, err := ApplyOverride(delayDecision(model.BucketLow), request(model.AuthorityOperator, "ok"), gateNow)
	var insufficient *InsufficientAuthorityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected *InsufficientAuthorityError, got %v", err)
	}
}

func TestApplyOverride_NoOp(t *testing.T) {
	req := request(model.AuthorityManager, "customer confirmed availability")
	req.Proposed = model.DecideDelay
	_, _, err := ApplyOverride(delayDecision(model.BucketMedium), req, gateNow)
	var noop *NoOpOverrideError
	if !errors.As(err, &noop) {
		t.Fatalf("expected *NoOpOverrideError, got %v", err)
	}
}

func TestApplyOverride_Success(t *testing.T) {
	d, ov, err := ApplyOverride(delayDecision(model.BucketMedium), request(model.AuthoritySupervisor, "customer confirmed availability"), gateNow)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if d.Kind != model.DecideDispatch {
		t.Errorf("kind = %s, want Dispatch", d.Kind)
	}
	if d.Source != model.SourceHuman {
		t.Errorf("source = %s, want human", d.Source)
	}
	if d.State != model.StateOverridden {
		t.Errorf("state = %s, want Overridden", d.State)
	}
	if !d.Locked {
		t.Error("decision not locked")
	}
	if d.DecidedAt != gateNow {
		t.Errorf("decided at = %v", d.DecidedAt)
	}

	if ov.ID == "" {
		t.Error("override record has no id")
	}
	if ov.Prior != model.DecideDelay || ov.New != model.DecideDispatch {
		t.Errorf("record transition = %s -> %s", ov.Prior, ov.New)
	}
	if ov.Actor != "r.sharma" || ov.Authority != model.AuthoritySupervisor {
		t.Errorf("record actor = %s (%s)", ov.Actor, ov.Authority)
	}
}
