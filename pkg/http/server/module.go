package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sipeat/sipeat-events/pkg/core/health"
	"github.com/sipeat/sipeat-events/pkg/core/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewHTTPServerModule serves the operational HTTP endpoints. Routes are
// registered on the provided gin engine by other modules.
func NewHTTPServerModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideEngine,
		),
		fx.Invoke(startHTTPServer),
	)
}

func provideEngine() (*gin.Engine, http.Handler) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New(func(e *gin.Engine) {
		e.ContextWithFallback = true
	})
	engine.Use(recoveryMiddleware(), requestLogMiddleware())
	return engine, engine
}

func startHTTPServer(lc fx.Lifecycle, log *zap.Logger, conf Config, handler http.Handler, readiness health.Readiness, shutdowner fx.Shutdowner) {
	readiness.AddComponent("http-server")

	var srv Server
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Routes are registered by now, safe to build the server.
			srv = newServer(log, conf, handler)

			go func() {
				err := srv.ServeWithReadyCallback(func() {
					readiness.MarkReady("http-server")
				})
				if err != nil {
					log.Error("HTTP server failed, shutting down application", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if srv != nil {
				return srv.Shutdown(ctx)
			}
			return nil
		},
	})
}

func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c).Error("panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path))
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health/live" || path == "/health/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.FromContext(c).Debug("incoming request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
