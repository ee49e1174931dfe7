package scorers

import (
	"testing"

	"github.com/kmehta07/lastmile/core/model"
)

func TestEvaluateWeather(t *testing.T) {
	cases := []struct {
		name     string
		fc       model.Forecast
		severity WeatherSeverity
		mult     float64
	}{
		{"clear", model.Forecast{}, SeverityLow, 1.0},
		{"light rain", model.Forecast{RainfallMM: 3}, SeverityLow, 1.0},
		{"moderate rain", model.Forecast{RainfallMM: 5}, SeverityMedium, 1.3},
		{"heavy rain", model.Forecast{RainfallMM: 25}, SeverityHigh, 1.6},
		{"heatwave only", model.Forecast{TemperatureC: 43}, SeverityMedium, 1.1},
		{"heavy rain and heat", model.Forecast{RainfallMM: 25, TemperatureC: 44}, SeverityHigh, 1.7},
		{"flood prone moderate rain", model.Forecast{RainfallMM: 12, FloodProne: true}, SeverityHigh, 1.3 * 1.25},
		{"flood prone light rain", model.Forecast{RainfallMM: 8, FloodProne: true}, SeverityMedium, 1.3},
		{"worst case capped", model.Forecast{RainfallMM: 60, TemperatureC: 45, FloodProne: true}, SeverityHigh, 2.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := EvaluateWeather(model.Shipment{}, tc.fc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Severity != tc.severity {
				t.Fatalf("severity = %s, want %s", v.Severity, tc.severity)
			}
			if diff := v.ETAMultiplier - tc.mult; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("multiplier = %v, want %v", v.ETAMultiplier, tc.mult)
			}
		})
	}
}

func TestEvaluateWeather_MultiplierBounds(t *testing.T) {
	forecasts := []model.Forecast{
		{},
		{RainfallMM: 100, TemperatureC: 50, FloodProne: true},
		{RainfallMM: 19.9, TemperatureC: 41.9},
	}
	for _, fc := range forecasts {
		v, err := EvaluateWeather(model.Shipment{}, fc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.ETAMultiplier < 1.0 || v.ETAMultiplier > 2.0 {
			t.Fatalf("multiplier %v out of [1.0, 2.0] for %+v", v.ETAMultiplier, fc)
		}
	}
}
