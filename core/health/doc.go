// Package health provides operations for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	g.Get("health/live", health.Liveness)
//	g.Get("health/ready", health.Readiness(logger, db.Ping, cache.Ping))
//	g.Get("ping", health.NoContent)
//
// Or register all three at once:
//
//	health.Register(g, logger, db.Ping, cache.Ping)
//
// Dependency checks must follow func(context.Context) error signature:
//
//	func checkDB(ctx context.Context) error {
//		return db.PingContext(ctx)
//	}
package health
