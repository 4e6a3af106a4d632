package route

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/relay/core/hook"
)

// Route binds a compiled template to a handler.
// Method-less routes are group routes that descend into nested handlers.
type Route struct {
	Template string
	Method   string
	Name     string
	Priority int
	Handler  any
	Pattern  *Pattern
	Hooks    hook.Set
}

type options struct {
	name     string
	priority int
	compile  []CompileOption
}

// Option configures New.
type Option func(*options)

// Name sets the route name hooks select on.
func Name(name string) Option {
	return func(o *options) { o.name = name }
}

// Priority orders routes within a table. Higher priorities are tried first.
func Priority(p int) Option {
	return func(o *options) { o.priority = p }
}

// Compiled passes options through to Compile.
func Compiled(opts ...CompileOption) Option {
	return func(o *options) { o.compile = append(o.compile, opts...) }
}

// New compiles template into a route. An empty method creates a group route.
func New(method, template string, handler any, opts ...Option) (*Route, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	method = strings.ToUpper(method)
	compileOpts := o.compile
	if method == "" {
		compileOpts = append(compileOpts, AsGroup())
	}

	pattern, err := Compile(template, compileOpts...)
	if err != nil {
		return nil, err
	}

	return &Route{
		Template: pattern.Template(),
		Method:   method,
		Name:     o.name,
		Priority: o.priority,
		Handler:  handler,
		Pattern:  pattern,
	}, nil
}

// IsGroup reports whether the route descends into a nested handler.
func (r *Route) IsGroup() bool { return r.Method == "" }

// Identities returns the names hook selectors can target the route by:
// its own name and the name of its handler, when the handler has one.
func (r *Route) Identities() []string {
	ids := make([]string, 0, 2)
	if r.Name != "" {
		ids = append(ids, r.Name)
	}
	if named, ok := r.Handler.(interface{ Name() string }); ok {
		if n := named.Name(); n != "" && n != r.Name {
			ids = append(ids, n)
		}
	}
	return ids
}

// Key identifies the route for conflict detection.
func (r *Route) Key() string {
	return r.Method + " " + r.Pattern.Canonical()
}

func (r *Route) String() string {
	method := r.Method
	if method == "" {
		method = "*"
	}
	return fmt.Sprintf("%s /%s", method, r.Template)
}
