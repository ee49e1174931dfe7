// Package pipeline orchestrates the shipment evaluation cycle: lock check,
// scorer fan-out, composite risk scoring, explanation, decision gating and
// record keeping. The cycle is logically single-threaded per shipment; the
// four scorers run in parallel and their outputs are collected before
// scoring proceeds.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kmehta07/lastmile/core/events"
	"github.com/kmehta07/lastmile/core/explain"
	"github.com/kmehta07/lastmile/core/gate"
	"github.com/kmehta07/lastmile/core/logger"
	"github.com/kmehta07/lastmile/core/metrics"
	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scorers"
	"github.com/kmehta07/lastmile/core/scoring"
	"github.com/kmehta07/lastmile/core/store"
	"github.com/kmehta07/lastmile/core/weather"
	"github.com/kmehta07/lastmile/internal/eventbus"
)

// ScorerFailure reports that one of the feasibility scorers could not
// complete. The shipment is forced to RESCHEDULE as a fail-safe default
// rather than silently dispatched.
type ScorerFailure struct {
	Scorer string
	Err    error
}

func (e *ScorerFailure) Error() string {
	return fmt.Sprintf("%s scorer failed: %v", e.Scorer, e.Err)
}

func (e *ScorerFailure) Unwrap() error { return e.Err }

// Result bundles everything one evaluation cycle produced.
type Result struct {
	Shipment    model.Shipment
	Forecast    model.Forecast
	Verdicts    scorers.Verdicts
	Assessment  model.RiskAssessment
	Explanation explain.Explanation
	Decision    model.Decision
	// WeatherDegraded is set when the forecast collaborator failed and the
	// cycle proceeded on the clear-weather default.
	WeatherDegraded bool
}

// Manager runs evaluation cycles and owns the mutation paths for decisions,
// overrides and outcomes.
type Manager struct {
	records  store.RecordStore
	audit    store.AuditStore
	weights  *scoring.Store
	ref      *scorers.ReferenceData
	provider weather.Provider
	cfg      scoring.Config
	log      logger.Logger
	sink     metrics.MetricsSink
	bus      eventbus.EventBus

	weatherTimeout time.Duration
	now            func() time.Time

	mu sync.Mutex
}

// NewManager creates a pipeline manager. The audit store, sink and bus may
// be nil; everything else is required. The weight store must be readable at
// construction time: scoring with undefined weights is never attempted.
func NewManager(records store.RecordStore, weights *scoring.Store, ref *scorers.ReferenceData, provider weather.Provider, cfg scoring.Config, log logger.Logger) (*Manager, error) {
	if records == nil || weights == nil || ref == nil {
		return nil, fmt.Errorf("pipeline: nil parameter provided to NewManager")
	}
	if provider == nil {
		provider = weather.Clear()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	cfg.SetDefaults()
	return &Manager{
		records:        records,
		weights:        weights,
		ref:            ref,
		provider:       provider,
		cfg:            cfg,
		log:            log,
		weatherTimeout: 5 * time.Second,
		now:            time.Now,
	}, nil
}

// SetAuditStore configures the append-only audit trail.
func (m *Manager) SetAuditStore(a store.AuditStore) {
	m.mu.Lock()
	m.audit = a
	m.mu.Unlock()
}

// SetMetricsSink configures the observability sink.
func (m *Manager) SetMetricsSink(s metrics.MetricsSink) {
	m.mu.Lock()
	m.sink = s
	m.mu.Unlock()
}

// SetEventBus configures the event bus decisions are published on.
func (m *Manager) SetEventBus(b eventbus.EventBus) {
	m.mu.Lock()
	m.bus = b
	m.mu.Unlock()
}

// SetWeatherTimeout bounds the forecast fetch.
func (m *Manager) SetWeatherTimeout(d time.Duration) {
	if d > 0 {
		m.mu.Lock()
		m.weatherTimeout = d
		m.mu.Unlock()
	}
}

// SetClock overrides the time source, for deterministic tests.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.mu.Lock()
		m.now = now
		m.mu.Unlock()
	}
}

// Evaluate runs one full evaluation cycle for a validated shipment and
// persists the shipment, assessment and decision. A locked shipment is
// rejected with *gate.LockedShipmentError before any scoring happens.
func (m *Manager) Evaluate(ctx context.Context, s model.Shipment) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	if prev, err := m.records.GetDecision(ctx, s.ID); err == nil && prev.Locked {
		return Result{}, &gate.LockedShipmentError{ShipmentID: s.ID}
	}

	now := m.clock()
	res := Result{Shipment: s}
	res.Forecast, res.WeatherDegraded = m.forecast(ctx, s.City, s.DeliveryDate)

	verdicts, sferr := m.runScorers(s, res.Forecast, now)
	res.Verdicts = verdicts
	if sferr != nil {
		// Fail safe: a scorer that cannot complete forces a RESCHEDULE; the
		// failure is surfaced, never silently defaulted.
		res.Decision = m.failSafeDecision(ctx, s, sferr, now)
		return res, sferr
	}

	snap := m.weights.Snapshot()
	res.Assessment = scoring.Score(s, verdicts, snap, m.cfg, now)
	res.Explanation = explain.Explain(res.Assessment, m.cfg)
	res.Decision = gate.Decide(res.Assessment, verdicts, m.cfg, res.Explanation.Phrases(), now)

	s.Status = res.Decision.State
	s.RiskScore = res.Assessment.Total
	res.Shipment = s

	if err := m.records.PutShipment(ctx, s); err != nil {
		return res, fmt.Errorf("store shipment: %w", err)
	}
	if err := m.records.PutAssessment(ctx, res.Assessment); err != nil {
		return res, fmt.Errorf("store assessment: %w", err)
	}
	if err := m.records.PutDecision(ctx, res.Decision); err != nil {
		return res, fmt.Errorf("store decision: %w", err)
	}

	m.publishDecision(ctx, res, false)
	return res, nil
}

// Reevaluate resets a shipment to PENDING and runs one new automatic cycle,
// for example after a customer clarified the address. Validation and
// scoring are never bypassed; locked shipments are rejected.
func (m *Manager) Reevaluate(ctx context.Context, shipmentID string) (Result, error) {
	s, err := m.records.GetShipment(ctx, shipmentID)
	if err != nil {
		return Result{}, fmt.Errorf("load shipment: %w", err)
	}
	d, err := m.records.GetDecision(ctx, shipmentID)
	if err == nil {
		if _, rerr := gate.Reset(d); rerr != nil {
			return Result{}, rerr
		}
	}
	// Refresh the derived address confidence in case the address changed.
	s.Status = model.StatePending
	return m.Evaluate(ctx, s)
}

// Override applies a human override to the current decision. Races between
// two manager actions on the same shipment are serialized by the store's
// optimistic version check; the loser receives a *store.ConflictError.
func (m *Manager) Override(ctx context.Context, req gate.OverrideRequest) (model.Decision, model.Override, error) {
	d, err := m.records.GetDecision(ctx, req.ShipmentID)
	if err != nil {
		return model.Decision{}, model.Override{}, fmt.Errorf("load decision: %w", err)
	}

	now := m.clock()
	next, ov, err := gate.ApplyOverride(d, req, now)
	if err != nil {
		return model.Decision{}, model.Override{}, err
	}

	updated, err := m.records.UpdateDecision(ctx, next, d.Version)
	if err != nil {
		return model.Decision{}, model.Override{}, err
	}
	if err := m.records.AppendOverride(ctx, ov); err != nil {
		return model.Decision{}, model.Override{}, fmt.Errorf("store override: %w", err)
	}

	if s, err := m.records.GetShipment(ctx, req.ShipmentID); err == nil {
		s.Status = model.StateOverridden
		if err := m.records.PutShipment(ctx, s); err != nil {
			m.log.Warnf("update shipment %s after override: %v", s.ID, err)
		}
	}

	m.mu.Lock()
	audit, sink, bus := m.audit, m.sink, m.bus
	m.mu.Unlock()
	if audit != nil {
		if err := audit.AppendOverride(ctx, ov); err != nil {
			m.log.Warnf("audit override %s: %v", ov.ShipmentID, err)
		}
		if err := audit.AppendDecision(ctx, updated); err != nil {
			m.log.Warnf("audit decision %s: %v", updated.ShipmentID, err)
		}
	}
	if sink != nil {
		if err := sink.RecordDecision(metrics.DecisionResult{
			ShipmentID: updated.ShipmentID,
			Decision:   updated.Kind,
			Source:     model.SourceHuman,
			Score:      updated.RiskScore,
			Bucket:     updated.Bucket,
			Time:       now,
		}); err != nil {
			m.log.Warnf("record override decision: %v", err)
		}
	}
	if bus != nil {
		bus.Publish(events.OverrideEvent{Override: ov})
	}

	m.log.Infof("shipment %s overridden %s -> %s by %s (%s)",
		ov.ShipmentID, ov.Prior, ov.New, ov.Actor, ov.Authority)
	return updated, ov, nil
}

// RecordOutcome closes a shipment lifecycle: the predicted decision and its
// factor breakdown are paired with the actual delivery result for the
// learning loop.
func (m *Manager) RecordOutcome(ctx context.Context, shipmentID string, result model.DeliveryResult) (model.Outcome, error) {
	d, err := m.records.GetDecision(ctx, shipmentID)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("load decision: %w", err)
	}
	a, err := m.records.GetAssessment(ctx, shipmentID)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("load assessment: %w", err)
	}

	o := model.Outcome{
		ShipmentID:        shipmentID,
		PredictedDecision: d.Kind,
		PredictedBucket:   a.Bucket,
		PredictedScore:    a.Total,
		Contributions:     a.Contributions,
		Result:            result,
		Overridden:        d.Source == model.SourceHuman,
		RecordedAt:        m.clock(),
	}
	if err := m.records.AppendOutcome(ctx, o); err != nil {
		return model.Outcome{}, fmt.Errorf("store outcome: %w", err)
	}

	m.mu.Lock()
	audit := m.audit
	m.mu.Unlock()
	if audit != nil {
		if err := audit.AppendOutcome(ctx, o); err != nil {
			m.log.Warnf("audit outcome %s: %v", shipmentID, err)
		}
	}
	return o, nil
}

// Close releases resources held by the manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	audit, bus := m.audit, m.bus
	m.mu.Unlock()
	if bus != nil {
		bus.Close()
	}
	if audit != nil {
		return audit.Close()
	}
	return nil
}

func (m *Manager) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

// forecast fetches the destination forecast with a bounded timeout,
// degrading to clear conditions when the collaborator fails. The pipeline
// never blocks on weather.
func (m *Manager) forecast(ctx context.Context, city string, date time.Time) (model.Forecast, bool) {
	m.mu.Lock()
	timeout := m.weatherTimeout
	m.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	fc, err := m.provider.GetForecast(fctx, city, date)
	if err != nil {
		m.log.Warnf("weather fetch for %s failed, using clear default: %v", city, err)
		return model.ClearForecast(city, date), true
	}
	return fc, false
}

// runScorers fans the four scorers out, collects all verdicts, and retries
// a failing scorer once before giving up.
func (m *Manager) runScorers(s model.Shipment, fc model.Forecast, now time.Time) (scorers.Verdicts, *ScorerFailure) {
	var (
		v       scorers.Verdicts
		wg      sync.WaitGroup
		mu      sync.Mutex
		failure *ScorerFailure
	)

	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if failure == nil && err != nil {
			failure = &ScorerFailure{Scorer: name, Err: err}
		}
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		av, err := retryScorer(func() (scorers.AreaVerdict, error) { return scorers.EvaluateArea(s, m.ref) })
		v.Area = av
		record("area", err)
	}()
	go func() {
		defer wg.Done()
		wv, err := retryScorer(func() (scorers.WeatherVerdict, error) { return scorers.EvaluateWeather(s, fc) })
		v.Weather = wv
		record("weather", err)
	}()
	go func() {
		defer wg.Done()
		vv, err := retryScorer(func() (scorers.VehicleVerdict, error) { return scorers.EvaluateVehicle(s, m.ref) })
		v.Vehicle = vv
		record("vehicle", err)
	}()
	go func() {
		defer wg.Done()
		pv, err := retryScorer(func() (scorers.PriorityVerdict, error) { return scorers.ClassifyPriority(s, now) })
		v.Priority = pv
		record("priority", err)
	}()
	wg.Wait()

	return v, failure
}

func retryScorer[T any](fn func() (T, error)) (T, error) {
	out, err := fn()
	if err == nil {
		return out, nil
	}
	return fn()
}

// failSafeDecision stores the forced RESCHEDULE used when a scorer fails.
func (m *Manager) failSafeDecision(ctx context.Context, s model.Shipment, sferr *ScorerFailure, now time.Time) model.Decision {
	d := model.Decision{
		ShipmentID: s.ID,
		Kind:       model.DecideReschedule,
		Source:     model.SourceAuto,
		State:      model.StateReschedule,
		Reasons:    []string{fmt.Sprintf("evaluation incomplete: %v", sferr)},
		DecidedAt:  now,
	}
	if err := m.records.PutDecision(ctx, d); err != nil {
		m.log.Errorf("store fail-safe decision %s: %v", s.ID, err)
	}
	m.publishDecision(ctx, Result{Shipment: s, Decision: d, Forecast: model.ClearForecast(s.City, s.DeliveryDate)}, true)
	return d
}

func (m *Manager) publishDecision(ctx context.Context, res Result, forced bool) {
	m.mu.Lock()
	audit, sink, bus := m.audit, m.sink, m.bus
	m.mu.Unlock()

	if audit != nil {
		if err := audit.AppendDecision(ctx, res.Decision); err != nil {
			m.log.Warnf("audit decision %s: %v", res.Decision.ShipmentID, err)
		}
	}
	if sink != nil {
		if err := sink.RecordDecision(metrics.DecisionResult{
			ShipmentID: res.Decision.ShipmentID,
			Decision:   res.Decision.Kind,
			Source:     res.Decision.Source,
			Score:      res.Decision.RiskScore,
			Bucket:     res.Decision.Bucket,
			Forced:     forced,
			Time:       res.Decision.DecidedAt,
		}); err != nil {
			m.log.Warnf("record decision: %v", err)
		}
	}
	if bus != nil {
		bus.Publish(events.DecisionEvent{Decision: res.Decision})
		if res.Decision.Kind != model.DecideDispatch {
			mult := res.Verdicts.Weather.ETAMultiplier
			if mult < 1 {
				mult = 1
			}
			bus.Publish(events.NotificationEvent{
				ShipmentID:    res.Decision.ShipmentID,
				Decision:      res.Decision.Kind.String(),
				Reasons:       res.Decision.Reasons,
				ETAMultiplier: mult,
				IssuedAt:      res.Decision.DecidedAt,
			})
		}
	}
	m.log.Debugw("decision taken", map[string]any{
		"shipment_id": res.Decision.ShipmentID,
		"decision":    res.Decision.Kind.String(),
		"score":       res.Decision.RiskScore,
		"bucket":      res.Decision.Bucket.String(),
		"forced":      forced,
	})
}
