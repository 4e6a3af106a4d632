package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/relay/core/hook"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/route"
	"github.com/dmitrymomot/relay/pkg/async"
)

// Serve dispatches req through the tree and always returns a response.
// Errors nothing handled are logged and rendered with response.FromError.
func (g *Group) Serve(ctx context.Context, req *message.Request) *message.Response {
	g.Build()

	s := reqctx.New()
	ctx = reqctx.WithStore(ctx, s)
	reqctx.StartTime.Value(s)
	reqctx.UnmatchedRoute.Set(s, route.Normalize(req.Path()))

	resp, err := g.dispatch(ctx, s, req)
	if err != nil {
		return g.fail(ctx, s, req, err)
	}
	if resp == nil {
		resp = message.NoContent()
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp
}

// ServeAsync runs Serve as one task on its own goroutine. Cooperative
// operations await their suspension points with ctx.
func (g *Group) ServeAsync(ctx context.Context, req *message.Request) *async.Future[*message.Response] {
	return async.Go(ctx, func(ctx context.Context) (*message.Response, error) {
		return g.Serve(ctx, req), nil
	})
}

func (g *Group) fail(ctx context.Context, s *reqctx.Store, req *message.Request, err error) *message.Response {
	cfg := g.root().settings
	resp := response.FromError(err, req, response.Options{
		Statuses: cfg.statuses,
		Debug:    !cfg.prefs.Production,
	})

	level := slog.LevelError
	switch {
	case resp.Status < http.StatusBadRequest:
		level = slog.LevelDebug
	case resp.Status < http.StatusInternalServerError:
		level = slog.LevelWarn
	}
	cfg.logger.LogAttrs(ctx, level, "unhandled dispatch error",
		logger.Error(err),
		logger.Method(req.Method),
		logger.Path(req.Path()),
		logger.StatusCode(resp.Status),
		logger.Operation(reqctx.OperationNames.Value(s)...),
		logger.Elapsed(reqctx.StartTime.Value(s)),
	)
	return resp
}

// dispatch resolves req against g and hands it to the matched route.
// Errors raised inside a nested group were already routed there and bubble
// up unchanged.
func (g *Group) dispatch(ctx context.Context, s *reqctx.Store, req *message.Request) (*message.Response, error) {
	m, err := route.ResolveStore(s, g.table.Routes(), req.Method)
	if err != nil {
		return g.resolveFailed(ctx, s, req, err)
	}

	switch h := m.Route.Handler.(type) {
	case *Group:
		if h.name != "" {
			reqctx.PushOperation(s, h.name)
		}
		return h.dispatch(ctx, s, req)
	case *Operation:
		reqctx.PushOperation(s, h.name)
		return g.newRun(s, h.Mode(), m.Route.Hooks, h.targets(), h).serve(ctx, req)
	case *mountedApp:
		reqctx.PushOperation(s, h.name)
		return h.serve(ctx, s, req, m.Rest)
	}
	return nil, fmt.Errorf("dispatch: unsupported route handler %T", m.Route.Handler)
}

// resolveFailed offers a not-found or method-not-allowed error to the
// group's wildcard error hooks and its plugins. A redo starts over from the
// root with the new request.
func (g *Group) resolveFailed(ctx context.Context, s *reqctx.Store, req *message.Request, err error) (*message.Response, error) {
	r := g.newRun(s, plugin.ModeBlocking, g.fallback, g.lineage(), nil)
	resp, redo, err := r.handle(ctx, req, err)
	if err != nil {
		return nil, err
	}
	if redo == nil {
		return resp, nil
	}

	index := reqctx.RetryIndex.Value(s) + 1
	if maxLoops := r.settings.prefs.MaxRetryLoops; index >= maxLoops {
		return nil, &message.MaxRetriesExceededError{Max: maxLoops}
	}
	reqctx.RetryIndex.Set(s, index)
	reqctx.UnmatchedRoute.Set(s, route.Normalize(redo.Path()))
	reqctx.PathParams.Delete(s)
	reqctx.OperationNames.Delete(s)
	return g.root().dispatch(ctx, s, redo)
}

func (g *Group) newRun(s *reqctx.Store, mode plugin.Mode, hooks hook.Set, targets []plugin.Target, op *Operation) *run {
	cfg := g.root().settings
	return &run{
		settings: cfg,
		session:  cfg.bus.Session(),
		store:    s,
		mode:     mode,
		hooks:    hooks,
		targets:  targets,
		op:       op,
	}
}
