package health

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/response"
)

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
func Readiness(log *slog.Logger, checks ...func(context.Context) error) dispatch.HandlerFunc {
	return func(ctx context.Context, _ *message.Request) (any, error) {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				return nil, response.ErrServiceUnavailable
			}
		}
		return "READY", nil
	}
}

// Register adds health/live, health/ready and ping operations to g.
func Register(g *dispatch.Group, log *slog.Logger, checks ...func(context.Context) error) {
	g.Get("health/live", Liveness, dispatch.Named("health.live"))
	g.Get("health/ready", Readiness(log, checks...), dispatch.Named("health.ready"))
	g.Get("ping", NoContent, dispatch.Named("health.ping"))
}
