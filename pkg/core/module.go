// Package core bundles the process-level modules every SipEat worker
// needs: environment and file configuration, logging, and readiness
// tracking.
package core

import (
	"time"

	"github.com/sipeat/sipeat-events/pkg/core/config"
	"github.com/sipeat/sipeat-events/pkg/core/health"
	"github.com/sipeat/sipeat-events/pkg/core/logger"
	"go.uber.org/fx"
)

// NewCoreModule provides config, logger and health. Startup and shutdown
// timeouts are generous because startup blocks on broker availability.
func NewCoreModule() fx.Option {
	return fx.Options(
		fx.StartTimeout(5*time.Minute),
		fx.StopTimeout(5*time.Minute),

		config.NewAppConfigModule(),
		config.NewViperModule(),
		logger.NewZapLoggingModule(),
		health.NewHealthModule(),
	)
}
