// Package config loads the service configuration from a JSON or YAML file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kmehta07/lastmile/core/learning"
	"github.com/kmehta07/lastmile/core/metrics"
	"github.com/kmehta07/lastmile/core/scoring"
	"github.com/kmehta07/lastmile/infra/notify"
	"github.com/kmehta07/lastmile/infra/weather"
)

type Config struct {
	API      APIConfig      `json:"api"`
	Store    StoreConfig    `json:"store"`
	Scoring  scoring.Config `json:"scoring"`
	Learning LearningConfig `json:"learning"`
	Weather  weather.Config `json:"weather"`
	Metrics  metrics.Config `json:"metrics"`
	Notifier notify.Config  `json:"notifier"`
}

// Load reads the configuration file at path. Environment variables prefixed
// with LM_ override file values, with __ as the nesting separator
// (LM_API__TOKEN overrides api.token).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("LM_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "lm_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Scoring.SetDefaults()
	cfg.Learning.SetDefaults()
	cfg.Weather.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks mandatory fields across all sections.
func (c Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Learning.Validate()
}

// LearningCfg converts the section to learning parameters.
func (c Config) LearningCfg() learning.Config {
	return c.Learning.Core()
}
