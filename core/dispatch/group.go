package dispatch

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrymomot/relay/core/hook"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/route"
)

// Group is an operation group: a route table with its own hooks and plugins.
// Groups nest through Mount; the outermost group is the root that requests
// are served from.
//
// Registration panics on misconfiguration and must finish before the first
// Serve or Build. A built tree is read-only and safe for concurrent use.
type Group struct {
	name     string
	table    *route.Table
	plugins  []any
	hooks    []*hook.Hook
	settings *settings

	parent    *Group
	mountedAt *route.Route

	// fallback holds the wildcard error hooks consulted when resolution
	// inside this group fails.
	fallback hook.Set

	buildOnce sync.Once
	built     bool
}

// NewGroup creates an operation group.
func NewGroup(name string, opts ...Option) *Group {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	s.bus = plugin.NewBus(s.registry, s.logger)

	return &Group{
		name:     name,
		table:    route.NewTable(),
		settings: s,
	}
}

// Name identifies the group to hook selectors and logs.
func (g *Group) Name() string { return g.name }

// Plugins returns the plugins attached to the group.
func (g *Group) Plugins() []any { return g.plugins }

// Use attaches plugins to the group. They apply to every operation beneath it.
func (g *Group) Use(plugins ...any) *Group {
	g.mustNotBeBuilt()
	g.plugins = append(g.plugins, plugins...)
	return g
}

// Get registers a handler for GET requests.
func (g *Group) Get(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodGet, template, fn, opts...)
}

// Post registers a handler for POST requests.
func (g *Group) Post(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodPost, template, fn, opts...)
}

// Put registers a handler for PUT requests.
func (g *Group) Put(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodPut, template, fn, opts...)
}

// Patch registers a handler for PATCH requests.
func (g *Group) Patch(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodPatch, template, fn, opts...)
}

// Delete registers a handler for DELETE requests.
func (g *Group) Delete(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodDelete, template, fn, opts...)
}

// Head registers a handler for HEAD requests.
func (g *Group) Head(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodHead, template, fn, opts...)
}

// Options registers a handler for OPTIONS requests.
func (g *Group) Options(template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	return g.Handle(http.MethodOptions, template, fn, opts...)
}

// Handle registers a blocking operation for method and template.
func (g *Group) Handle(method, template string, fn HandlerFunc, opts ...OperationOption) *Operation {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s %s'", ErrNilHandler, method, template))
	}
	return g.register(method, template, &Operation{handler: fn}, opts)
}

// HandleAsync registers a cooperative operation for method and template.
func (g *Group) HandleAsync(method, template string, fn AsyncHandlerFunc, opts ...OperationOption) *Operation {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s %s'", ErrNilHandler, method, template))
	}
	return g.register(method, template, &Operation{async: fn}, opts)
}

func (g *Group) register(method, template string, op *Operation, opts []OperationOption) *Operation {
	g.mustNotBeBuilt()

	method = strings.ToUpper(method)
	if !validMethod(method) {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidMethod, method))
	}

	cfg := &operationConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	op.name = cfg.name
	if op.name == "" {
		op.name = method + " /" + route.Normalize(template)
	}
	op.group = g
	op.plugins = cfg.plugins
	op.idempotent = cfg.idempotent

	r, err := route.New(method, template, op,
		route.Name(op.name),
		route.Priority(cfg.priority),
		route.Compiled(cfg.compile...),
	)
	if err != nil {
		panic(fmt.Errorf("dispatch: %w", err))
	}
	if err := g.table.Add(r); err != nil {
		panic(fmt.Errorf("dispatch: %w", err))
	}
	op.route = r
	return op
}

// Mount attaches sub beneath template. Requests whose path starts with the
// template descend into sub with the remainder of the path. Hooks of g that
// select the mount (by sub's name) apply to every operation inside sub.
func (g *Group) Mount(template string, sub *Group, opts ...route.Option) {
	g.mustNotBeBuilt()
	if sub == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilGroup, template))
	}
	if sub.parent != nil {
		panic(fmt.Errorf("%w: '%s'", ErrAlreadyMounted, sub.name))
	}
	if sub.built {
		panic(fmt.Errorf("%w: '%s'", ErrBuilt, sub.name))
	}
	for cur := g; cur != nil; cur = cur.parent {
		if cur == sub {
			panic(fmt.Errorf("%w: '%s'", ErrMountCycle, sub.name))
		}
	}

	r := g.mountRoute(template, sub, sub.name, opts)
	sub.parent = g
	sub.mountedAt = r
}

func (g *Group) mountRoute(template string, handler any, name string, opts []route.Option) *route.Route {
	opts = append([]route.Option{route.Name(name)}, opts...)
	r, err := route.New("", template, handler, opts...)
	if err != nil {
		panic(fmt.Errorf("dispatch: %w", err))
	}
	if err := g.table.Add(r); err != nil {
		panic(fmt.Errorf("dispatch: %w", err))
	}
	return r
}

// Before declares a before-hook on the group.
func (g *Group) Before(sel hook.Selector, fn hook.BeforeFunc) *hook.Hook {
	return g.Hook(hook.Before(sel, fn))
}

// After declares an after-hook on the group.
func (g *Group) After(sel hook.Selector, fn hook.AfterFunc) *hook.Hook {
	return g.Hook(hook.After(sel, fn))
}

// OnError declares an error hook on the group.
func (g *Group) OnError(sel hook.Selector, fn hook.ErrorFunc, claims ...hook.Claim) *hook.Hook {
	return g.Hook(hook.OnError(sel, fn, claims...))
}

// Hook declares a prepared hook on the group. Hooks attach to the group's
// routes when the tree is built.
func (g *Group) Hook(h *hook.Hook) *hook.Hook {
	g.mustNotBeBuilt()
	if h == nil {
		panic(fmt.Errorf("%w: hook", ErrNilHandler))
	}
	g.hooks = append(g.hooks, h)
	return h
}

// RouteInfo describes a registered operation.
type RouteInfo struct {
	Method   string
	Path     string
	Name     string
	Priority int
}

// Routes lists the operations of the tree rooted at g with their full paths.
// Mounted applications are listed with method "*".
func (g *Group) Routes() []RouteInfo {
	var out []RouteInfo
	g.collectRoutes("", &out)
	return out
}

func (g *Group) collectRoutes(prefix string, out *[]RouteInfo) {
	for _, r := range g.table.Routes() {
		path := joinPath(prefix, r.Template)
		switch h := r.Handler.(type) {
		case *Group:
			h.collectRoutes(path, out)
		case *Operation:
			*out = append(*out, RouteInfo{Method: r.Method, Path: "/" + path, Name: h.name, Priority: r.Priority})
		default:
			*out = append(*out, RouteInfo{Method: "*", Path: "/" + path, Name: r.Name, Priority: r.Priority})
		}
	}
}

func joinPath(prefix, tail string) string {
	switch {
	case prefix == "":
		return tail
	case tail == "":
		return prefix
	}
	return prefix + "/" + tail
}

// lineage lists g and its ancestors, nearest first.
func (g *Group) lineage() []plugin.Target {
	var out []plugin.Target
	for cur := g; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

func (g *Group) root() *Group {
	cur := g
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (g *Group) mustNotBeBuilt() {
	if g.root().built {
		panic(fmt.Errorf("%w: '%s'", ErrBuilt, g.name))
	}
}
