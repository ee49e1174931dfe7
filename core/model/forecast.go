package model

import "time"

// Forecast is the normalized weather input consumed by the weather scorer.
// Providers map their wire format into this shape; the core never sees a
// provider response directly.
type Forecast struct {
	City         string
	Date         time.Time
	RainfallMM   float64
	TemperatureC float64
	FloodProne   bool
	// SeverityHint is an optional provider-supplied severity label. The
	// scorer derives its own tier from the numeric fields; the hint is kept
	// for logging only.
	SeverityHint string
}

// ClearForecast returns the neutral forecast used when the weather
// collaborator is unavailable: low severity, no ETA buffer.
func ClearForecast(city string, date time.Time) Forecast {
	return Forecast{City: city, Date: date}
}
