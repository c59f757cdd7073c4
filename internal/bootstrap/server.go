package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/circuitbreaker"
	infragin "github.com/jonesrussell/north-cloud/aisearch/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/aisearch/internal/api"
)

const (
	httpReadTimeout  = 15 * time.Second
	httpWriteTimeout = 90 * time.Second
	httpIdleTimeout  = 60 * time.Second
)

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(app *App) *infragin.Server {
	handler := api.NewHandler(api.Services{
		Indexers:    app.Indexers,
		DataSources: app.DataSources,
		Indexes:     app.Indexes,
		Diagnostics: app.Diagnostics,
	}, app.Logger)

	builder := infragin.NewServerBuilder(app.Config.Service.Name, app.Config.Service.Port).
		WithLogger(app.Logger).
		WithDebug(app.Config.Service.Debug).
		WithVersion(app.Config.Service.Version).
		WithTimeouts(httpReadTimeout, httpWriteTimeout, httpIdleTimeout).
		WithHealthCheck("search", searchHealthCheck(app)).
		WithMetrics(app.Metrics.Handler()).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, handler, app.Config.Service.JWTSecret)
		})

	if app.DB != nil {
		builder = builder.WithHealthCheck("database",
			infragin.PingHealthChecker("database", infragin.HealthStatusDegraded, app.DB.Ping))
	}

	return builder.Build()
}

// searchHealthCheck reports the circuit state and, when closed, probes the
// endpoint. Any HTTP answer counts as reachable.
func searchHealthCheck(app *App) infragin.HealthChecker {
	return func(ctx context.Context) infragin.CheckResult {
		if state := app.Client.BreakerState(); state == circuitbreaker.StateOpen {
			return infragin.CheckResult{
				Status:  infragin.HealthStatusDegraded,
				Message: "search circuit open",
			}
		}

		probe := app.Client.Reachability(ctx)
		if !probe.Reachable {
			return infragin.CheckResult{
				Status:  infragin.HealthStatusUnhealthy,
				Message: "search service unreachable: " + probe.Error,
				Latency: probe.Latency.String(),
			}
		}
		return infragin.CheckResult{
			Status:  infragin.HealthStatusHealthy,
			Message: "search service reachable",
			Latency: probe.Latency.String(),
		}
	}
}
