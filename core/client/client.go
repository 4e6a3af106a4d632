package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dmitrymomot/relay/core/config"
	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
	"github.com/dmitrymomot/relay/pkg/async"
)

// Client issues outbound calls through a Backend, folding the attached
// plugins around every exchange with the bounded retry loop.
type Client struct {
	backend  Backend
	plugins  []any
	prefs    config.Preferences
	registry *plugin.Registry
	bus      *plugin.Bus
	logger   *slog.Logger

	mu     sync.Mutex
	chains map[plugin.Mode]dispatch.Invoker
}

// Option configures a Client.
type Option func(*Client)

// WithPlugins attaches client-wide plugins.
func WithPlugins(plugins ...any) Option {
	return func(c *Client) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithPreferences sets the retry bounds. Zero fields keep their defaults.
func WithPreferences(p config.Preferences) Option {
	return func(c *Client) {
		c.prefs = p.WithDefaults()
	}
}

// WithRegistry sets the static plugin callbacks. New freezes the registry.
func WithRegistry(r *plugin.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithLogger sets the logger for plugin and transport diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client. It panics when backend is nil.
func New(backend Backend, opts ...Option) *Client {
	if backend == nil {
		panic(ErrNilBackend)
	}
	c := &Client{
		backend: backend,
		prefs:   config.DefaultPreferences(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		chains:  make(map[plugin.Mode]dispatch.Invoker, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bus = plugin.NewBus(c.registry, c.logger)
	return c
}

// Plugins returns the client-wide plugins.
func (c *Client) Plugins() []any { return c.plugins }

// Do sends req through the client-wide plugin chain.
func (c *Client) Do(ctx context.Context, req *message.Request) (*message.Response, error) {
	return c.chain(plugin.ModeBlocking)(enter(ctx, ""), req)
}

// DoAsync sends req through the cooperative variant of the chain.
func (c *Client) DoAsync(ctx context.Context, req *message.Request) *async.Future[*message.Response] {
	invoke := c.chain(plugin.ModeCooperative)
	return async.Go(enter(ctx, ""), func(ctx context.Context) (*message.Response, error) {
		return invoke(ctx, req)
	})
}

// enter attaches the request context of the call. Inside a served
// operation it forks the served one, so request ids and trace context carry
// over while the retry state of the two loops stays apart. It runs on the
// caller's goroutine so the served store is never read concurrently.
func enter(ctx context.Context, name string) context.Context {
	s := reqctx.New()
	if parent := reqctx.FromContext(ctx); parent != nil {
		s = parent.Fork()
		reqctx.StartTime.Delete(s)
		reqctx.RetryIndex.Delete(s)
		reqctx.Idempotent.Delete(s)
	}
	reqctx.StartTime.Value(s)
	if name != "" {
		reqctx.PushOperation(s, name)
	}
	return reqctx.WithStore(ctx, s)
}

func (c *Client) chain(mode plugin.Mode) dispatch.Invoker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inv, ok := c.chains[mode]; ok {
		return inv
	}
	inv := c.build([]plugin.Target{c}, mode, nil)
	c.chains[mode] = inv
	return inv
}

func (c *Client) build(targets []plugin.Target, mode plugin.Mode, idempotent func(*message.Request) bool) dispatch.Invoker {
	bare := func(ctx context.Context, req *message.Request) (*message.Response, error) {
		resp, err := c.backend.Do(ctx, req)
		if err != nil {
			c.logger.WarnContext(ctx, "outbound call failed",
				logger.Error(err),
				logger.Method(req.Method),
				logger.Path(req.Path()),
				logger.RetryIndex(reqctx.RetryIndex.Value(reqctx.FromContext(ctx))),
			)
		}
		return resp, err
	}
	return dispatch.BuildChain(bare, targets, dispatch.ChainConfig{
		MaxLoops:   c.prefs.ClientMaxRetryLoops,
		Budget:     c.prefs.MaxRetryTime,
		Mode:       mode,
		Bus:        c.bus,
		Idempotent: idempotent,
	})
}

// CallJSON calls e and decodes a successful JSON answer into T. Answers with
// status 400 and above are returned as *StatusError.
func CallJSON[T any](ctx context.Context, e *Endpoint, args Args) (T, error) {
	var out T
	resp, err := e.Call(ctx, args)
	if err != nil {
		return out, err
	}
	if resp.Status >= http.StatusBadRequest {
		return out, &StatusError{Response: resp}
	}
	if resp.Status == http.StatusNoContent || len(resp.Body) == 0 {
		return out, nil
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
