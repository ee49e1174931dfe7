package config

import (
	"fmt"
	"time"

	"github.com/kmehta07/lastmile/core/learning"
)

// APIConfig defines the HTTP listener settings.
type APIConfig struct {
	// Address is the listen address for the API server.
	Address string `json:"address"`
	// Token protects all endpoints with a bearer token; empty disables auth.
	Token string `json:"token"`
	// PrometheusAddress serves the /metrics endpoint; empty disables it.
	PrometheusAddress string `json:"prometheus_address"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("api address is required")
	}
	return nil
}

// StoreConfig defines where persistent state lives.
type StoreConfig struct {
	// WeightsPath is the JSON file holding the tunable weights. The service
	// refuses to start when the file exists but cannot be read.
	WeightsPath string `json:"weights_path"`
	// AuditPath is the SQLite database file for the audit trail; empty
	// disables the audit store.
	AuditPath string `json:"audit_path"`
	// RefDataPath is the YAML file with area profiles and vehicle specs;
	// empty uses the built-in defaults.
	RefDataPath string `json:"ref_data_path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.WeightsPath == "" {
		c.WeightsPath = "weights.json"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.WeightsPath == "" {
		return fmt.Errorf("weights path is required")
	}
	return nil
}

// LearningConfig is the file-facing shape of the learning parameters.
type LearningConfig struct {
	EvidenceMin     int     `json:"evidence_min"`
	Step            int     `json:"step"`
	HighFailureRate float64 `json:"high_failure_rate"`
	LowFailureRate  float64 `json:"low_failure_rate"`
	IntervalHours   int     `json:"interval_hours"`
}

// SetDefaults applies sane defaults.
func (c *LearningConfig) SetDefaults() {
	if c.IntervalHours <= 0 {
		c.IntervalHours = 24
	}
}

// Validate checks the rate ordering.
func (c LearningConfig) Validate() error {
	if c.LowFailureRate > 0 && c.HighFailureRate > 0 && c.LowFailureRate >= c.HighFailureRate {
		return fmt.Errorf("low failure rate must be below high failure rate")
	}
	return nil
}

// Core converts the section to learning parameters.
func (c LearningConfig) Core() learning.Config {
	cfg := learning.Config{
		EvidenceMin:     c.EvidenceMin,
		Step:            c.Step,
		HighFailureRate: c.HighFailureRate,
		LowFailureRate:  c.LowFailureRate,
		Interval:        time.Duration(c.IntervalHours) * time.Hour,
	}
	cfg.SetDefaults()
	return cfg
}
