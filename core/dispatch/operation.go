package dispatch

import (
	"context"

	"github.com/dmitrymomot/relay/core/binder"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/route"
	"github.com/dmitrymomot/relay/pkg/async"
)

// HandlerFunc handles a request in the blocking model. The result is
// converted with message.FromResult unless it already is a *message.Response.
type HandlerFunc func(ctx context.Context, req *message.Request) (any, error)

// AsyncHandlerFunc handles a request in the cooperative model.
type AsyncHandlerFunc func(ctx context.Context, req *message.Request) *async.Future[any]

// Operation is a terminal handler registered on a group.
type Operation struct {
	name       string
	group      *Group
	route      *route.Route
	handler    HandlerFunc
	async      AsyncHandlerFunc
	plugins    []any
	idempotent *bool
}

// Name identifies the operation to hook selectors and logs.
func (o *Operation) Name() string { return o.name }

// Plugins returns the plugins attached to the operation.
func (o *Operation) Plugins() []any { return o.plugins }

// Route returns the route the operation is registered under.
func (o *Operation) Route() *route.Route { return o.route }

// Mode reports the execution model the operation was declared for.
func (o *Operation) Mode() plugin.Mode {
	if o.async != nil {
		return plugin.ModeCooperative
	}
	return plugin.ModeBlocking
}

// Use attaches plugins to the operation.
func (o *Operation) Use(plugins ...any) *Operation {
	o.group.mustNotBeBuilt()
	o.plugins = append(o.plugins, plugins...)
	return o
}

func (o *Operation) invoke(ctx context.Context, req *message.Request) (any, error) {
	if o.async != nil {
		return o.async(ctx, req).AwaitContext(ctx)
	}
	return o.handler(ctx, req)
}

// idempotentFor reports whether req may be retried under this operation.
func (o *Operation) idempotentFor(req *message.Request) bool {
	if o.idempotent != nil {
		return *o.idempotent
	}
	return req.Idempotent()
}

// targets lists the operation and its enclosing groups, nearest first.
func (o *Operation) targets() []plugin.Target {
	return append([]plugin.Target{o}, o.group.lineage()...)
}

type operationConfig struct {
	name       string
	priority   int
	plugins    []any
	idempotent *bool
	compile    []route.CompileOption
}

// OperationOption configures an operation at registration.
type OperationOption func(*operationConfig)

// Named sets the operation name. The default is "METHOD /template".
func Named(name string) OperationOption {
	return func(c *operationConfig) { c.name = name }
}

// WithPriority orders the route within its group. Higher priorities resolve first.
func WithPriority(p int) OperationOption {
	return func(c *operationConfig) { c.priority = p }
}

// WithPlugins attaches plugins to the operation.
func WithPlugins(plugins ...any) OperationOption {
	return func(c *operationConfig) { c.plugins = append(c.plugins, plugins...) }
}

// Idempotent overrides the method-based idempotency retry plugins consult.
func Idempotent(v bool) OperationOption {
	return func(c *operationConfig) { c.idempotent = &v }
}

// Compile passes options to the route compiler.
func Compile(opts ...route.CompileOption) OperationOption {
	return func(c *operationConfig) { c.compile = append(c.compile, opts...) }
}

// Params declares the parameter schema of the operation: every template
// placeholder must be a `path` field of P.
func Params[P any]() OperationOption {
	var zero P
	return Compile(route.KnownParams(binder.PathFields(&zero)...))
}

// validMethod accepts the standard methods and custom upper-case tokens
// non-HTTP backends use, such as "PUBLISH".
func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for _, r := range m {
		if (r < 'A' || r > 'Z') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
