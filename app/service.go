// Package app wires the dispatch pipeline, its stores, the learning loop
// and the HTTP surfaces into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	auditapi "github.com/kmehta07/lastmile/api/audit"
	shipmentsapi "github.com/kmehta07/lastmile/api/shipments"
	"github.com/kmehta07/lastmile/config"
	"github.com/kmehta07/lastmile/core/learning"
	coremetrics "github.com/kmehta07/lastmile/core/metrics"
	"github.com/kmehta07/lastmile/core/pipeline"
	"github.com/kmehta07/lastmile/core/scorers"
	"github.com/kmehta07/lastmile/core/scoring"
	corestore "github.com/kmehta07/lastmile/core/store"
	coreweather "github.com/kmehta07/lastmile/core/weather"
	"github.com/kmehta07/lastmile/infra/logger"
	inframetrics "github.com/kmehta07/lastmile/infra/metrics"
	"github.com/kmehta07/lastmile/infra/notify"
	infrastore "github.com/kmehta07/lastmile/infra/store"
	infraweather "github.com/kmehta07/lastmile/infra/weather"
	"github.com/kmehta07/lastmile/internal/eventbus"
)

// Service orchestrates the pipeline manager, the learning loop and the API
// server.
type Service struct {
	Manager *pipeline.Manager
	Weights *scoring.Store
	Loop    *learning.Loop

	cfg      *config.Config
	bus      eventbus.EventBus
	audit    corestore.AuditStore
	notifier *notify.MQTTNotifier
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	weights, err := loadWeights(cfg.Store.WeightsPath, logg)
	if err != nil {
		return nil, err
	}

	ref := scorers.DefaultReferenceData()
	if cfg.Store.RefDataPath != "" {
		ref, err = scorers.LoadReferenceData(cfg.Store.RefDataPath)
		if err != nil {
			return nil, fmt.Errorf("reference data: %w", err)
		}
	}

	var provider coreweather.Provider = coreweather.Clear()
	if cfg.Weather.BaseURL != "" {
		provider = infraweather.NewHTTPClient(cfg.Weather, logger.New("weather"))
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	records := infrastore.NewMemoryStore()
	bus := eventbus.New()

	manager, err := pipeline.NewManager(records, weights, ref, provider, cfg.Scoring, logg)
	if err != nil {
		return nil, fmt.Errorf("pipeline manager: %w", err)
	}
	manager.SetMetricsSink(sink)
	manager.SetEventBus(bus)

	var audit corestore.AuditStore
	if cfg.Store.AuditPath != "" {
		audit, err = infrastore.NewSQLiteAuditStore(cfg.Store.AuditPath)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		manager.SetAuditStore(audit)
	}

	loop, err := learning.New(weights, records, cfg.LearningCfg(), logger.New("learning"), sink, bus)
	if err != nil {
		return nil, fmt.Errorf("learning loop: %w", err)
	}

	var notifier *notify.MQTTNotifier
	if cfg.Notifier.Enabled {
		notifier, err = notify.NewMQTTNotifier(cfg.Notifier)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
	}

	return &Service{
		Manager:  manager,
		Weights:  weights,
		Loop:     loop,
		cfg:      cfg,
		bus:      bus,
		audit:    audit,
		notifier: notifier,
		log:      logg,
	}, nil
}

// loadWeights reads the weight file, bootstrapping defaults when it does not
// exist yet. Any other read error is fatal.
func loadWeights(path string, log logger.Logger) (*scoring.Store, error) {
	weights, err := scoring.LoadStore(path)
	if err == nil {
		return weights, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("weight config: %w", err)
	}
	log.Warnf("weight config %s missing, bootstrapping defaults", path)
	weights = scoring.NewStore()
	if err := weights.Save(path); err != nil {
		return nil, fmt.Errorf("bootstrap weight config: %w", err)
	}
	return weights, nil
}

// Handler assembles the HTTP routes for the API server.
func (s *Service) Handler() http.Handler {
	token := s.cfg.API.Token
	mux := http.NewServeMux()
	mux.Handle("POST /api/shipments", shipmentsapi.NewEvaluateHandler(s.Manager, token))
	mux.Handle("POST /api/shipments/{id}/reevaluate", shipmentsapi.NewReevaluateHandler(s.Manager, token))
	mux.Handle("POST /api/shipments/{id}/override", shipmentsapi.NewOverrideHandler(s.Manager, token))
	mux.Handle("POST /api/shipments/{id}/outcome", shipmentsapi.NewOutcomeHandler(s.Manager, token))
	mux.Handle("GET /api/audit/weights", auditapi.NewWeightsHandler(s.Weights, token))
	if s.audit != nil {
		mux.Handle("GET /api/audit/decisions", auditapi.NewDecisionLogHandler(s.audit, token))
		mux.Handle("GET /api/audit/overrides", auditapi.NewOverrideLogHandler(s.audit, token))
		mux.Handle("GET /api/audit/outcomes", auditapi.NewOutcomeLogHandler(s.audit, token))
	}
	return mux
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Loop.Run(ctx)
	if s.notifier != nil {
		go s.notifier.Run(ctx, s.bus)
	}
	if s.cfg.API.PrometheusAddress != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.cfg.API.PrometheusAddress); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.API.Address, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.API.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources and persists the weight state.
func (s *Service) Close() error {
	var errs []error
	if err := s.Weights.Save(s.cfg.Store.WeightsPath); err != nil {
		errs = append(errs, fmt.Errorf("save weights: %w", err))
	}
	if s.notifier != nil {
		s.notifier.Disconnect()
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit store: %w", err))
		}
	}
	s.bus.Close()
	if err := s.Manager.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
