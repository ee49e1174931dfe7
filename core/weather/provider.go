// Package weather defines the forecast collaborator contract. The core
// consumes a normalized forecast; providers own the wire format and are
// expected to fail sometimes, so callers degrade to a cached or clear
// forecast rather than block the pipeline.
package weather

import (
	"context"
	"time"

	"github.com/kmehta07/lastmile/core/model"
)

// Provider fetches the forecast for a destination city and delivery date.
// Implementations must honor the context deadline.
type Provider interface {
	GetForecast(ctx context.Context, city string, date time.Time) (model.Forecast, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, city string, date time.Time) (model.Forecast, error)

func (f ProviderFunc) GetForecast(ctx context.Context, city string, date time.Time) (model.Forecast, error) {
	return f(ctx, city, date)
}

// Clear returns a Provider that always reports clear conditions. Used in
// tests and as the terminal fallback.
func Clear() Provider {
	return ProviderFunc(func(_ context.Context, city string, date time.Time) (model.Forecast, error) {
		return model.ClearForecast(city, date), nil
	})
}
