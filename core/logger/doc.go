// Package logger provides structured logging helpers built on log/slog.
//
// New builds a *slog.Logger from options; environment presets pick the format
// and level:
//
//	import "github.com/dmitrymomot/relay/core/logger"
//
//	log := logger.New(logger.WithDevelopment("myapp"))        // text, debug
//	log := logger.New(logger.WithProduction("myapp"))         // JSON, info
//	log := logger.New(
//		logger.WithLevel(slog.LevelWarn),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(slog.String("service", "api")),
//		logger.WithOutput(os.Stderr),
//	)
//
// # Context-Aware Logging
//
// Extractors add request-scoped attributes to every record. RequestContext
// reads the relay request store and logs the operation stack and the retry
// index of the current dispatch loop:
//
//	log := logger.New(
//		logger.WithProduction("myapp"),
//		logger.WithContextExtractors(logger.RequestContext()),
//		logger.WithContextValue("tenant", tenantKey{}),
//	)
//
//	log.InfoContext(ctx, "processing")
//	// {"msg":"processing","relay":{"operation":"api > users.get","retry_index":0}}
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for zero inputs, so they can be passed
// unconditionally:
//
//	log.Error("dispatch failed",
//		logger.Error(err),
//		logger.Method(req.Method),
//		logger.Path(req.Path()),
//		logger.Route("GET /users/{id}"),
//		logger.StatusCode(500),
//		logger.Elapsed(start),
//	)
package logger
