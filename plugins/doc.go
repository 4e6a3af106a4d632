// Package plugins provides stock plugins for served groups and outbound
// clients.
//
//   - CORS answers preflight requests and decorates cross-origin responses.
//   - RequestID assigns and propagates request ids (UUID or ULID).
//   - Logging writes structured slog records per response and error.
//   - Retry redoes failed requests with exponential backoff.
//   - Metrics records Prometheus counters and latency histograms.
//   - Tracing opens OpenTelemetry spans and propagates trace context.
//
// Plugins attach with Group.Use, Operation.Use, client.WithPlugins or
// client.EndpointPlugins:
//
//	api := dispatch.NewGroup("api")
//	api.Use(
//		plugins.NewRequestID(plugins.RequestIDConfig{UseExisting: true}),
//		plugins.NewLogging(plugins.LoggingConfig{Logger: log}),
//		plugins.NewCORS(plugins.CORSConfig{AllowOrigins: []string{"https://app.example.com"}}),
//	)
//
//	billing := client.New(backend, client.WithPlugins(
//		plugins.NewRetry(plugins.RetryConfig{MaxRetries: 5}),
//		plugins.NewTracing(plugins.TracingConfig{Kind: trace.SpanKindClient}),
//	))
//
// Retry and Tracing keep per-request state; the engine gives every
// dispatch its own copy through plugin.Instancer.
package plugins
