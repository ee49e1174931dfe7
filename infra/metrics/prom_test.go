package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kmehta07/lastmile/core/factory"
	coremetrics "github.com/kmehta07/lastmile/core/metrics"
	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scoring"
)

var metricsNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		return total, true
	}
	return 0, false
}

func TestPromSink_RecordDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := sink.RecordDecision(coremetrics.DecisionResult{
			ShipmentID: "SHP-1",
			Decision:   model.DecideReschedule,
			Source:     model.SourceAuto,
			Score:      70,
			Bucket:     model.BucketHigh,
			Time:       metricsNow,
		}); err != nil {
			t.Fatalf("record decision: %v", err)
		}
	}

	if v, ok := gatherValue(t, reg, "dispatch_decisions_total"); !ok || v != 3 {
		t.Fatalf("decisions counter = %v (found %v)", v, ok)
	}
	if v, ok := gatherValue(t, reg, "dispatch_risk_score"); !ok || v != 3 {
		t.Fatalf("score histogram samples = %v (found %v)", v, ok)
	}
}

func TestPromSink_RecordLearningCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := sink.RecordLearningCycle(coremetrics.LearningResult{
		Adjustments: []scoring.Adjustment{
			{Factor: model.FactorCOD, Old: 15, New: 20, FailureRate: 0.5, Samples: 12, Timestamp: metricsNow},
		},
		Outcomes: 12,
		Time:     metricsNow,
	}); err != nil {
		t.Fatalf("record cycle: %v", err)
	}

	if v, ok := gatherValue(t, reg, "learning_cycles_total"); !ok || v != 1 {
		t.Fatalf("cycles counter = %v (found %v)", v, ok)
	}
	if v, ok := gatherValue(t, reg, "scoring_factor_weight"); !ok || v != 20 {
		t.Fatalf("weight gauge = %v (found %v)", v, ok)
	}
}

func TestPromSink_ReRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}

func TestMetricsSinkFactory(t *testing.T) {
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("nop sink: %v", err)
	}
	if err := sink.RecordDecision(coremetrics.DecisionResult{}); err != nil {
		t.Fatalf("nop record: %v", err)
	}

	if _, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "bogus"}}); err == nil {
		t.Fatal("unknown sink type accepted")
	}

	// No sinks configured degrades to a nop sink, never an error.
	if _, err := coremetrics.NewMetricsSink(nil); err != nil {
		t.Fatalf("empty config: %v", err)
	}
}
