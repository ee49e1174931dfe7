// Package weather provides the HTTP forecast provider and its caching
// wrapper. The upstream API is expected to be flaky; the cache keeps the
// last good forecast per city+date so the pipeline can degrade gracefully.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kmehta07/lastmile/core/logger"
	"github.com/kmehta07/lastmile/core/model"
	coreweather "github.com/kmehta07/lastmile/core/weather"
)

// Config configures the HTTP forecast client.
type Config struct {
	BaseURL        string `json:"base_url" yaml:"base_url" koanf:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" koanf:"timeout_seconds"`
	CacheTTLHours  int    `json:"cache_ttl_hours" yaml:"cache_ttl_hours" koanf:"cache_ttl_hours"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.CacheTTLHours <= 0 {
		c.CacheTTLHours = 6
	}
}

// forecastResponse is the upstream wire format.
type forecastResponse struct {
	City        string  `json:"city"`
	Date        string  `json:"date"`
	RainfallMM  float64 `json:"rainfall_mm"`
	Temperature float64 `json:"temperature_c"`
	FloodProne  bool    `json:"flood_prone"`
	Severity    string  `json:"severity"`
}

// HTTPClient fetches forecasts over HTTP and caches the last good result per
// city and date.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	now func() time.Time
}

type cacheEntry struct {
	forecast model.Forecast
	storedAt time.Time
}

// NewHTTPClient builds a forecast client from cfg.
func NewHTTPClient(cfg Config, log logger.Logger) *HTTPClient {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     log,
		ttl:     time.Duration(cfg.CacheTTLHours) * time.Hour,
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}
}

var _ coreweather.Provider = (*HTTPClient)(nil)

// GetForecast fetches the forecast for city on date. On upstream failure it
// returns the cached forecast when one is fresh enough, and otherwise a
// clear forecast alongside the fetch error so the caller can decide how to
// degrade.
func (c *HTTPClient) GetForecast(ctx context.Context, city string, date time.Time) (model.Forecast, error) {
	forecast, err := c.fetch(ctx, city, date)
	if err == nil {
		c.store(city, date, forecast)
		return forecast, nil
	}
	if cached, ok := c.cached(city, date); ok {
		c.log.Warnf("forecast fetch for %s failed, serving cached: %v", city, err)
		return cached, nil
	}
	return model.ClearForecast(city, date), err
}

func (c *HTTPClient) fetch(ctx context.Context, city string, date time.Time) (model.Forecast, error) {
	endpoint := fmt.Sprintf("%s/forecast?city=%s&date=%s",
		c.baseURL, url.QueryEscape(city), date.Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Forecast{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("forecast request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return model.Forecast{}, fmt.Errorf("forecast request: unexpected status %d", resp.StatusCode)
	}
	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}
	return model.Forecast{
		City:         city,
		Date:         date,
		RainfallMM:   body.RainfallMM,
		TemperatureC: body.Temperature,
		FloodProne:   body.FloodProne,
		SeverityHint: body.Severity,
	}, nil
}

func cacheKey(city string, date time.Time) string {
	return city + "|" + date.Format("2006-01-02")
}

func (c *HTTPClient) store(city string, date time.Time, f model.Forecast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[cacheKey(city, date)] = cacheEntry{forecast: f, storedAt: c.now()}
}

func (c *HTTPClient) cached(city string, date time.Time) (model.Forecast, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[cacheKey(city, date)]
	if !ok || c.now().Sub(entry.storedAt) > c.ttl {
		return model.Forecast{}, false
	}
	return entry.forecast, true
}
