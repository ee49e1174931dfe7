// Package learning implements the daily weight-adjustment cycle. The loop
// reads the outcomes accumulated since the last cycle, computes per-factor
// failure statistics and nudges the risk weights within their global
// bounds. Adjustment is slow, capped and fully audited; this is controlled
// tuning, not retraining.
package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kmehta07/lastmile/core/events"
	"github.com/kmehta07/lastmile/core/logger"
	"github.com/kmehta07/lastmile/core/metrics"
	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scoring"
	"github.com/kmehta07/lastmile/core/store"
	"github.com/kmehta07/lastmile/internal/eventbus"
)

// Config defines the learning parameters. They are injectable so tests can
// exercise the loop with synthetic cadences and thresholds.
type Config struct {
	// EvidenceMin is the minimum sample count before a factor may be
	// adjusted in a cycle.
	EvidenceMin int `json:"evidence_min"`
	// Step is the weight change applied per qualifying factor per cycle.
	Step int `json:"step"`
	// HighFailureRate triggers a weight increase when exceeded.
	HighFailureRate float64 `json:"high_failure_rate"`
	// LowFailureRate triggers a weight decrease when the observed rate is
	// below it.
	LowFailureRate float64 `json:"low_failure_rate"`
	// Interval is the cycle cadence; logically once per day.
	Interval time.Duration `json:"-"`
}

// SetDefaults applies the standard learning parameters.
func (c *Config) SetDefaults() {
	if c.EvidenceMin == 0 {
		c.EvidenceMin = 10
	}
	if c.Step == 0 {
		c.Step = 5
	}
	if c.HighFailureRate == 0 {
		c.HighFailureRate = 0.4
	}
	if c.LowFailureRate == 0 {
		c.LowFailureRate = 0.1
	}
	if c.Interval == 0 {
		c.Interval = 24 * time.Hour
	}
}

// FactorStat summarizes one factor's evidence in a cycle.
type FactorStat struct {
	Factor      model.Factor `json:"factor"`
	Samples     int          `json:"samples"`
	Failures    int          `json:"failures"`
	FailureRate float64      `json:"failure_rate"`
}

// Report describes one completed learning cycle: the evidence seen, the
// adjustments applied and why the rest were skipped.
type Report struct {
	CycleStart  time.Time               `json:"cycle_start"`
	CycleEnd    time.Time               `json:"cycle_end"`
	Outcomes    int                     `json:"outcomes"`
	Stats       []FactorStat            `json:"stats"`
	Adjustments []scoring.Adjustment    `json:"adjustments"`
	Skipped     map[model.Factor]string `json:"skipped,omitempty"`
}

// Loop owns the periodic weight adjustment. It is the only writer of the
// weight store.
type Loop struct {
	weights  *scoring.Store
	outcomes store.RecordStore
	cfg      Config
	log      logger.Logger
	sink     metrics.MetricsSink
	bus      eventbus.EventBus

	lastCycle time.Time
}

// New creates a learning loop. The sink and bus may be nil.
func New(weights *scoring.Store, outcomes store.RecordStore, cfg Config, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Loop, error) {
	if weights == nil || outcomes == nil {
		return nil, fmt.Errorf("learning: weight store and outcome store are required")
	}
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Loop{weights: weights, outcomes: outcomes, cfg: cfg, log: log, sink: sink, bus: bus}, nil
}

// Run executes cycles on the configured cadence until the context is
// canceled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := l.RunCycle(ctx, time.Now()); err != nil {
				l.log.Errorf("learning cycle: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle executes one discrete learning cycle over the outcomes recorded
// since the previous cycle. At most one adjustment is applied per factor;
// out-of-bounds adjustments are clamped, logged and do not halt the cycle.
func (l *Loop) RunCycle(ctx context.Context, now time.Time) (Report, error) {
	outs, err := l.outcomes.Outcomes(ctx, store.OutcomeQuery{Since: l.lastCycle, Until: now})
	if err != nil {
		return Report{}, fmt.Errorf("read outcomes: %w", err)
	}

	report := Report{
		CycleStart: l.lastCycle,
		CycleEnd:   now,
		Outcomes:   len(outs),
		Skipped:    make(map[model.Factor]string),
	}

	for _, f := range model.CanonicalFactors {
		st := factorStat(f, outs)
		report.Stats = append(report.Stats, st)

		if st.Samples < l.cfg.EvidenceMin {
			report.Skipped[f] = fmt.Sprintf("insufficient evidence: %d of %d samples", st.Samples, l.cfg.EvidenceMin)
			continue
		}

		var delta int
		switch {
		case st.FailureRate > l.cfg.HighFailureRate:
			delta = l.cfg.Step
		case st.FailureRate < l.cfg.LowFailureRate:
			delta = -l.cfg.Step
		default:
			report.Skipped[f] = fmt.Sprintf("failure rate %.2f within target band", st.FailureRate)
			continue
		}

		adj, err := l.weights.Adjust(f, delta, st.FailureRate, st.Samples, now)
		var berr *scoring.BoundsError
		if err != nil && !errors.As(err, &berr) {
			return report, err
		}
		if berr != nil {
			l.log.Warnf("learning cycle: %v", berr)
		}
		if adj.Old == adj.New {
			report.Skipped[f] = "already at bound"
			continue
		}
		report.Adjustments = append(report.Adjustments, adj)
		l.log.Infof("weight %s adjusted %d -> %d (failure rate %.2f over %d samples)",
			f, adj.Old, adj.New, st.FailureRate, st.Samples)
	}

	l.lastCycle = now

	if l.sink != nil {
		if err := l.sink.RecordLearningCycle(metrics.LearningResult{
			Adjustments: report.Adjustments,
			Outcomes:    report.Outcomes,
			Time:        now,
		}); err != nil {
			l.log.Warnf("record learning cycle: %v", err)
		}
	}
	if l.bus != nil {
		l.bus.Publish(events.LearningEvent{
			Adjustments: report.Adjustments,
			Outcomes:    report.Outcomes,
			CompletedAt: now,
		})
	}
	return report, nil
}

// factorStat computes the failure statistics among the outcomes where the
// factor contributed materially to the score.
func factorStat(f model.Factor, outs []model.Outcome) FactorStat {
	var indicators []float64
	failures := 0
	for _, o := range outs {
		if o.Contributions[f] <= 0 {
			continue
		}
		if o.Failed() {
			indicators = append(indicators, 1)
			failures++
		} else {
			indicators = append(indicators, 0)
		}
	}
	st := FactorStat{Factor: f, Samples: len(indicators), Failures: failures}
	if len(indicators) > 0 {
		st.FailureRate = stat.Mean(indicators, nil)
	}
	return st
}
