package plugins

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// LoggingConfig configures the logging plugin.
type LoggingConfig struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Level for request and response records (default: info).
	Level slog.Level

	// LogRequest logs every attempt as it starts.
	LogRequest bool

	// LogHeaders adds request and response headers, redacting SensitiveHeaders.
	LogHeaders bool

	// SensitiveHeaders defaults to common auth headers.
	SensitiveHeaders []string

	// SlowThreshold raises successful responses to warn (default: 5s).
	SlowThreshold time.Duration

	// Component defaults to "relay".
	Component string
}

// Logging writes one record per response and per error seen by the plugin
// chain, tagged with the operation stack and retry index.
type Logging struct {
	cfg LoggingConfig
}

// NewLogging creates a logging plugin.
func NewLogging(cfg LoggingConfig) *Logging {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "relay"
	}
	return &Logging{cfg: cfg}
}

func (l *Logging) attrs(ctx context.Context, event string, req *message.Request) []slog.Attr {
	s := reqctx.FromContext(ctx)
	attrs := []slog.Attr{
		logger.Component(l.cfg.Component),
		logger.Event(event),
		logger.Operation(reqctx.OperationNames.Value(s)...),
		logger.RetryIndex(reqctx.RetryIndex.Value(s)),
	}
	if req != nil {
		attrs = append(attrs, logger.Method(req.Method), logger.Path(req.Path()))
	}
	if id := RequestIDVar.Value(s); id != "" {
		attrs = append(attrs, logger.RequestID(id))
	}
	return attrs
}

func (l *Logging) headers(key string, h http.Header) slog.Attr {
	out := make(map[string]any, len(h))
	for k, vs := range h {
		switch {
		case slices.Contains(l.cfg.SensitiveHeaders, k):
			out[k] = "[REDACTED]"
		case len(vs) == 1:
			out[k] = vs[0]
		default:
			out[k] = vs
		}
	}
	return slog.Any(key, out)
}

func (l *Logging) ProcessRequest(ctx context.Context, req *message.Request) (plugin.Result, error) {
	if !l.cfg.LogRequest {
		return plugin.Unchanged(), nil
	}
	attrs := l.attrs(ctx, "request", req)
	if l.cfg.LogHeaders {
		attrs = append(attrs, l.headers("request_headers", req.Header))
	}
	l.cfg.Logger.LogAttrs(ctx, l.cfg.Level, "request started", attrs...)
	return plugin.Unchanged(), nil
}

func (l *Logging) ProcessResponse(ctx context.Context, resp *message.Response) (plugin.Result, error) {
	elapsed := reqctx.Elapsed(reqctx.FromContext(ctx))
	attrs := append(l.attrs(ctx, "response", resp.Request),
		logger.StatusCode(resp.Status),
		logger.Duration(elapsed),
	)
	if l.cfg.LogHeaders {
		attrs = append(attrs, l.headers("response_headers", resp.Header))
	}

	level := l.cfg.Level
	switch {
	case resp.Status >= http.StatusInternalServerError:
		level = slog.LevelError
	case resp.Status >= http.StatusBadRequest, elapsed > l.cfg.SlowThreshold:
		level = max(level, slog.LevelWarn)
	}
	l.cfg.Logger.LogAttrs(ctx, level, "request completed", attrs...)
	return plugin.Unchanged(), nil
}

func (l *Logging) HandleError(ctx context.Context, e *message.Error) (plugin.Result, error) {
	level := slog.LevelError
	if e.Status > 0 && e.Status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	attrs := append(l.attrs(ctx, "error", e.Request),
		logger.StatusCode(e.Status),
		logger.Error(e.Err),
	)
	l.cfg.Logger.LogAttrs(ctx, level, "request failed", attrs...)
	return plugin.Unchanged(), nil
}
