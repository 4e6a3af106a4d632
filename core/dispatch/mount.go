package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
	"github.com/dmitrymomot/relay/core/route"
)

// mountedApp is a foreign handler mounted under a group template. It is
// invoked through a chain built once at Build instead of the per-request
// hook and plugin resolution operations get.
type mountedApp struct {
	name    string
	group   *Group
	route   *route.Route
	invoke  Invoker
	plugins []any
	mode    plugin.Mode
	chain   Invoker
}

// Name identifies the mounted app to hook selectors.
func (a *mountedApp) Name() string { return a.name }

// Plugins returns the plugins attached to the mount.
func (a *mountedApp) Plugins() []any { return a.plugins }

func (a *mountedApp) build(s *settings) {
	targets := append([]plugin.Target{a}, a.group.lineage()...)
	a.chain = BuildChain(a.invoke, targets, ChainConfig{
		MaxLoops: s.prefs.MaxRetryLoops,
		Budget:   s.prefs.MaxRetryTime,
		Mode:     a.mode,
		Bus:      s.bus,
	})
}

// serve passes the unresolved remainder of the path to the app. Errors the
// chain leaves unhandled go to the mount's error hooks.
func (a *mountedApp) serve(ctx context.Context, s *reqctx.Store, req *message.Request, rest string) (*message.Response, error) {
	sub := req.Clone()
	if sub.URL != nil {
		sub.URL.Path = "/" + rest
		sub.URL.RawPath = ""
	}

	resp, err := a.chain(ctx, sub)
	if err == nil {
		return resp, nil
	}

	r := a.group.newRun(s, a.mode, a.route.Hooks, nil, nil)
	resp, redo, err := r.handle(ctx, sub, err)
	if err != nil {
		return nil, err
	}
	if redo != nil {
		return a.chain(ctx, redo)
	}
	return resp, nil
}

// MountOption configures a mounted application.
type MountOption func(*mountedApp)

// MountName sets the name hook selectors target the mount by.
func MountName(name string) MountOption {
	return func(a *mountedApp) { a.name = name }
}

// MountPlugins attaches plugins to the mount.
func MountPlugins(plugins ...any) MountOption {
	return func(a *mountedApp) { a.plugins = append(a.plugins, plugins...) }
}

// MountCooperative runs the mount's plugins in the cooperative model.
func MountCooperative() MountOption {
	return func(a *mountedApp) { a.mode = plugin.ModeCooperative }
}

// MountApp mounts a bare invoker beneath template. The invoker sees the
// request with the path reduced to the unresolved remainder.
func (g *Group) MountApp(template string, app Invoker, opts ...MountOption) {
	g.mustNotBeBuilt()
	if app == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilHandler, template))
	}

	a := &mountedApp{group: g, invoke: app, mode: plugin.ModeBlocking}
	for _, opt := range opts {
		opt(a)
	}
	if a.name == "" {
		a.name = "* /" + route.Normalize(template)
	}
	a.route = g.mountRoute(template, a, a.name, nil)
}

// MountHTTP mounts a net/http handler beneath template.
func (g *Group) MountHTTP(template string, h http.Handler, opts ...MountOption) {
	if h == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilHandler, template))
	}
	g.MountApp(template, HTTPInvoker(h), opts...)
}

// HTTPInvoker adapts a net/http handler to an Invoker.
func HTTPInvoker(h http.Handler) Invoker {
	return func(ctx context.Context, req *message.Request) (*message.Response, error) {
		hr, err := req.HTTP(ctx)
		if err != nil {
			return nil, err
		}
		w := newResponseRecorder()
		h.ServeHTTP(w, hr)
		return w.response(req), nil
	}
}
