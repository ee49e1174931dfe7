package scorers

import "github.com/kmehta07/lastmile/core/model"

// WeatherSeverity is the impact tier derived from forecast conditions.
type WeatherSeverity int

const (
	SeverityLow WeatherSeverity = iota
	SeverityMedium
	SeverityHigh
)

func (s WeatherSeverity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return "unknown"
	}
}

// Weather thresholds. All rules are monotonic: worse conditions never lower
// the severity or the multiplier.
const (
	heavyRainMM     = 20.0
	moderateRainMM  = 5.0
	floodRainMM     = 10.0
	heatwaveC       = 42.0
	multiplierLow   = 1.0
	multiplierMed   = 1.3
	multiplierHigh  = 1.6
	heatPenalty     = 0.1
	floodMultiplier = 1.25
	multiplierCap   = 2.0
)

// WeatherVerdict is the weather impact result. ETAMultiplier is applied
// downstream to buffer the promised ETA; it stays within [1.0, 2.0].
type WeatherVerdict struct {
	Severity      WeatherSeverity
	ETAMultiplier float64
	Reason        string
}

// EvaluateWeather maps a normalized forecast to a severity tier and an ETA
// multiplier.
func EvaluateWeather(s model.Shipment, fc model.Forecast) (WeatherVerdict, error) {
	severity := SeverityLow
	mult := multiplierLow
	reason := "weather conditions are normal"

	switch {
	case fc.RainfallMM > heavyRainMM:
		severity = SeverityHigh
		mult = multiplierHigh
		reason = "heavy rainfall significantly increases delay risk"
	case fc.RainfallMM >= moderateRainMM:
		severity = SeverityMedium
		mult = multiplierMed
		reason = "rain may slow traffic and last-mile delivery"
	}

	if fc.TemperatureC >= heatwaveC {
		mult += heatPenalty
		if severity == SeverityLow {
			severity = SeverityMedium
			reason = "extreme heat may stress vehicles and riders"
		}
	}

	if fc.FloodProne && fc.RainfallMM > floodRainMM {
		mult *= floodMultiplier
		severity = SeverityHigh
		reason = "rainfall in a flood-prone destination"
	}

	if mult > multiplierCap {
		mult = multiplierCap
	}

	return WeatherVerdict{Severity: severity, ETAMultiplier: mult, Reason: reason}, nil
}
