package plugins

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// DefaultRequestIDHeader carries request ids in and out.
const DefaultRequestIDHeader = "X-Request-ID"

// RequestIDVar holds the id of the current request. The first write wins,
// so an outbound call made while serving reuses the inbound id.
var RequestIDVar = reqctx.NewVar("relay.request_id", reqctx.Spec[string]{HasDefault: true, Static: true})

// RequestIDConfig configures the request id plugin.
type RequestIDConfig struct {
	// Generator creates new ids (default: UUID v4).
	Generator func() string
	// HeaderName defaults to DefaultRequestIDHeader.
	HeaderName string
	// UseExisting trusts an id already present on the request.
	UseExisting bool
}

// RequestID assigns every request an id, exposes it to the handler through
// the request header and RequestIDVar, and echoes it on the response.
type RequestID struct {
	cfg RequestIDConfig
}

// NewRequestID creates a request id plugin.
func NewRequestID(cfg RequestIDConfig) *RequestID {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultRequestIDHeader
	}
	if cfg.Generator == nil {
		cfg.Generator = UUIDGenerator()
	}
	return &RequestID{cfg: cfg}
}

// UUIDGenerator produces random UUID v4 ids.
func UUIDGenerator() func() string {
	return func() string { return uuid.New().String() }
}

// ULIDGenerator produces lexicographically sortable ids.
func ULIDGenerator() func() string {
	return func() string { return ulid.Make().String() }
}

func (p *RequestID) ProcessRequest(ctx context.Context, req *message.Request) (plugin.Result, error) {
	s := reqctx.FromContext(ctx)

	id := RequestIDVar.Value(s)
	if id == "" && p.cfg.UseExisting {
		id = req.Header.Get(p.cfg.HeaderName)
	}
	if id == "" {
		id = p.cfg.Generator()
	}
	RequestIDVar.Set(s, id)

	if req.Header.Get(p.cfg.HeaderName) == id {
		return plugin.Unchanged(), nil
	}
	next := req.Clone()
	next.Header.Set(p.cfg.HeaderName, id)
	return plugin.Replace(next), nil
}

func (p *RequestID) ProcessResponse(ctx context.Context, resp *message.Response) (plugin.Result, error) {
	if id := RequestIDVar.Value(reqctx.FromContext(ctx)); id != "" {
		resp.Header.Set(p.cfg.HeaderName, id)
	}
	return plugin.Unchanged(), nil
}

// RequestIDExtractor adds the request id to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := RequestIDVar.Value(reqctx.FromContext(ctx))
		if id == "" {
			return slog.Attr{}, false
		}
		return logger.RequestID(id), true
	}
}
