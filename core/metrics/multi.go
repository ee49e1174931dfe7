package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDecision forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordDecision(res DecisionResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordDecision(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordLearningCycle forwards the event to all sinks.
func (m *MultiSink) RecordLearningCycle(res LearningResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordLearningCycle(res); err != nil {
			return err
		}
	}
	return nil
}
