package plugins

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// SpanContextVar holds the span context of the served request, so that
// spans of outbound calls made while serving become its children.
var SpanContextVar = reqctx.NewVar("relay.span_context", reqctx.Spec[trace.SpanContext]{HasDefault: true})

// TracingConfig configures the tracing plugin.
type TracingConfig struct {
	// TracerProvider defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// Propagator defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator
	// Kind is trace.SpanKindServer for served groups, trace.SpanKindClient
	// for outbound clients (default: server).
	Kind trace.SpanKind
}

// Tracing opens one span per attempt. Served requests continue the trace
// carried by their headers; outbound requests get the span context injected.
type Tracing struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	kind       trace.SpanKind

	span trace.Span
}

// NewTracing creates a tracing plugin prototype.
func NewTracing(cfg TracingConfig) *Tracing {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	if cfg.Kind == trace.SpanKindUnspecified {
		cfg.Kind = trace.SpanKindServer
	}
	return &Tracing{
		tracer:     cfg.TracerProvider.Tracer("github.com/dmitrymomot/relay/plugins"),
		propagator: cfg.Propagator,
		kind:       cfg.Kind,
	}
}

// NewInstance implements plugin.Instancer.
func (t *Tracing) NewInstance() any {
	return &Tracing{tracer: t.tracer, propagator: t.propagator, kind: t.kind}
}

func (t *Tracing) ProcessRequest(ctx context.Context, req *message.Request) (plugin.Result, error) {
	if t.span != nil {
		// A redo skipped the response of the previous attempt.
		t.span.SetAttributes(attribute.Bool("relay.redone", true))
		t.end()
	}
	s := reqctx.FromContext(ctx)
	names := reqctx.OperationNames.Value(s)
	name := req.Method + " " + req.Path()
	if len(names) > 0 {
		name = strings.Join(names, " > ")
	}

	parent := ctx
	if t.kind == trace.SpanKindServer {
		parent = t.propagator.Extract(ctx, propagation.HeaderCarrier(req.Header))
	} else if sc := SpanContextVar.Value(s); sc.IsValid() {
		parent = trace.ContextWithSpanContext(ctx, sc)
	}

	spanCtx, span := t.tracer.Start(parent, name,
		trace.WithSpanKind(t.kind),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path()),
			attribute.Int("relay.retry_index", reqctx.RetryIndex.Value(s)),
		),
	)
	t.span = span

	if t.kind != trace.SpanKindClient {
		if sc := span.SpanContext(); sc.IsValid() {
			SpanContextVar.Set(s, sc)
		}
		return plugin.Unchanged(), nil
	}
	next := req.Clone()
	t.propagator.Inject(spanCtx, propagation.HeaderCarrier(next.Header))
	return plugin.Replace(next), nil
}

func (t *Tracing) ProcessResponse(_ context.Context, resp *message.Response) (plugin.Result, error) {
	if t.span == nil {
		return plugin.Unchanged(), nil
	}
	t.span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	if resp.Status >= http.StatusInternalServerError {
		t.span.SetStatus(codes.Error, http.StatusText(resp.Status))
	}
	t.end()
	return plugin.Unchanged(), nil
}

func (t *Tracing) HandleError(_ context.Context, e *message.Error) (plugin.Result, error) {
	if t.span == nil {
		return plugin.Unchanged(), nil
	}
	t.span.RecordError(e.Err)
	t.span.SetAttributes(attribute.Int("http.response.status_code", e.Status))
	t.span.SetStatus(codes.Error, e.Error())
	t.end()
	return plugin.Unchanged(), nil
}

// TraceIDExtractor adds the trace id of the served request to log records.
func TraceIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		sc := SpanContextVar.Value(reqctx.FromContext(ctx))
		if !sc.HasTraceID() {
			return slog.Attr{}, false
		}
		return logger.TraceID(sc.TraceID().String()), true
	}
}

func (t *Tracing) end() {
	t.span.End()
	t.span = nil
}
