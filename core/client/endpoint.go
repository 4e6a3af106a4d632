package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/route"
	"github.com/dmitrymomot/relay/pkg/async"
	"github.com/dmitrymomot/relay/pkg/jsoncodec"
)

// Endpoint is one outbound operation: a method and a path template expanded
// per call.
type Endpoint struct {
	client     *Client
	name       string
	method     string
	pattern    *route.Pattern
	plugins    []any
	idempotent *bool

	once   sync.Once
	chains map[plugin.Mode]dispatch.Invoker
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// EndpointName names the endpoint in logs and the operation-name stack.
func EndpointName(name string) EndpointOption {
	return func(e *Endpoint) { e.name = name }
}

// EndpointPlugins attaches plugins nearer than the client-wide ones.
func EndpointPlugins(plugins ...any) EndpointOption {
	return func(e *Endpoint) { e.plugins = append(e.plugins, plugins...) }
}

// EndpointIdempotent overrides the method-based idempotency flag retry
// plugins consult.
func EndpointIdempotent(v bool) EndpointOption {
	return func(e *Endpoint) { e.idempotent = &v }
}

// Endpoint declares an outbound operation. The template uses the route
// grammar; trailing optional placeholders are dropped when not supplied.
func (c *Client) Endpoint(method, template string, opts ...EndpointOption) (*Endpoint, error) {
	p, err := route.Compile(template)
	if err != nil {
		return nil, fmt.Errorf("client: endpoint %s %s: %w", method, template, err)
	}
	e := &Endpoint{
		client:  c,
		name:    method + " /" + p.Template(),
		method:  method,
		pattern: p,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MustEndpoint is like Endpoint but panics on an invalid template.
func (c *Client) MustEndpoint(method, template string, opts ...EndpointOption) *Endpoint {
	e, err := c.Endpoint(method, template, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Endpoint) Name() string   { return e.name }
func (e *Endpoint) Plugins() []any  { return e.plugins }

// Args carries the per-call values of an endpoint request.
type Args struct {
	Path   map[string]string
	Query  url.Values
	Header http.Header
	// Body is sent as is when it is []byte or string, JSON-encoded otherwise.
	Body any
}

// Request builds the outbound request for args.
func (e *Endpoint) Request(args Args) (*message.Request, error) {
	path, err := e.pattern.Build(args.Path)
	if err != nil {
		return nil, fmt.Errorf("client: %s: %w", e.name, err)
	}
	path = "/" + path
	if len(args.Query) > 0 {
		path += "?" + args.Query.Encode()
	}

	var (
		body        []byte
		contentType string
	)
	switch v := args.Body.(type) {
	case nil:
	case []byte:
		body = v
	case string:
		body, contentType = []byte(v), "text/plain; charset=utf-8"
	default:
		if body, err = jsoncodec.Marshal(v); err != nil {
			return nil, fmt.Errorf("client: %s: encode body: %w", e.name, err)
		}
		contentType = "application/json"
	}

	req, err := message.NewRequest(e.method, path, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range args.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Call performs the endpoint on the calling goroutine.
func (e *Endpoint) Call(ctx context.Context, args Args) (*message.Response, error) {
	req, err := e.Request(args)
	if err != nil {
		return nil, err
	}
	return e.chain(plugin.ModeBlocking)(enter(ctx, e.name), req)
}

// CallAsync performs the endpoint as one cooperative task.
func (e *Endpoint) CallAsync(ctx context.Context, args Args) *async.Future[*message.Response] {
	req, err := e.Request(args)
	if err != nil {
		return async.Resolved[*message.Response](nil, err)
	}
	invoke := e.chain(plugin.ModeCooperative)
	return async.Go(enter(ctx, e.name), func(ctx context.Context) (*message.Response, error) {
		return invoke(ctx, req)
	})
}

func (e *Endpoint) chain(mode plugin.Mode) dispatch.Invoker {
	e.once.Do(func() {
		var idempotent func(*message.Request) bool
		if e.idempotent != nil {
			v := *e.idempotent
			idempotent = func(*message.Request) bool { return v }
		}
		targets := []plugin.Target{e, e.client}
		e.chains = map[plugin.Mode]dispatch.Invoker{
			plugin.ModeBlocking:    e.client.build(targets, plugin.ModeBlocking, idempotent),
			plugin.ModeCooperative: e.client.build(targets, plugin.ModeCooperative, idempotent),
		}
	})
	return e.chains[mode]
}
