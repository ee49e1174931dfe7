package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kmehta07/lastmile/core/metrics"
)

// PromSink records pipeline events in Prometheus metrics.
type PromSink struct {
	decisions *prometheus.CounterVec
	scores    prometheus.Histogram
	weights   *prometheus.GaugeVec
	cycles    prometheus.Counter
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_decisions_total",
		Help: "Total number of dispatch decisions",
	}, []string{"decision", "source", "bucket", "forced"})
	scores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_risk_score",
		Help:    "Distribution of computed risk scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
	weights := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scoring_factor_weight",
		Help: "Current tunable weight per risk factor",
	}, []string{"factor"})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learning_cycles_total",
		Help: "Number of completed learning cycles",
	})

	if err := reg.Register(decisions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			decisions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(scores); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scores = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(weights); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			weights = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cycles); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycles = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{decisions: decisions, scores: scores, weights: weights, cycles: cycles}, nil
}

// RecordDecision increments the decision counter and observes the risk score.
func (s *PromSink) RecordDecision(res coremetrics.DecisionResult) error {
	s.decisions.WithLabelValues(
		res.Decision.String(),
		res.Source.String(),
		res.Bucket.String(),
		strconv.FormatBool(res.Forced),
	).Inc()
	s.scores.Observe(float64(res.Score))
	return nil
}

// RecordLearningCycle counts the cycle and sets the gauge for every adjusted
// factor weight.
func (s *PromSink) RecordLearningCycle(res coremetrics.LearningResult) error {
	s.cycles.Inc()
	for _, adj := range res.Adjustments {
		s.weights.WithLabelValues(string(adj.Factor)).Set(float64(adj.New))
	}
	return nil
}
