package health

import "go.uber.org/fx"

// NewHealthModule provides the process-wide Readiness tracker.
func NewHealthModule() fx.Option {
	return fx.Module("health",
		fx.Provide(NewReadiness),
	)
}
