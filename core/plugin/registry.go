package plugin

import (
	"context"
	"errors"
	"reflect"
)

// ErrRegistryFrozen is the panic value of binding into a registry a bus already reads.
var ErrRegistryFrozen = errors.New("plugin registry is frozen")

type bindingKey struct {
	event  string
	target reflect.Type
	plugin reflect.Type
}

type binding func(ctx context.Context, target, p, arg any) (Result, error)

// Registry holds callbacks bound to (event, target type, plugin type).
// Bind everything at startup: NewBus freezes the registry, after which it is
// only read and binding panics.
type Registry struct {
	bindings map[bindingKey]binding
	frozen   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[bindingKey]binding)}
}

// Bind registers fn as the handler of ev for plugins of type P attached to
// targets of type T. It takes precedence over the plugin's own methods.
func Bind[T, P any](r *Registry, ev *Event, fn func(ctx context.Context, p P, arg any) (Result, error)) {
	r.put(bindingKey{ev.name, reflect.TypeFor[T](), reflect.TypeFor[P]()},
		func(ctx context.Context, _, p, arg any) (Result, error) {
			return fn(ctx, p.(P), arg)
		})
}

// BindTarget is Bind for callbacks that want the target instance.
func BindTarget[T, P any](r *Registry, ev *Event, fn func(ctx context.Context, target T, p P, arg any) (Result, error)) {
	r.put(bindingKey{ev.name, reflect.TypeFor[T](), reflect.TypeFor[P]()},
		func(ctx context.Context, target, p, arg any) (Result, error) {
			return fn(ctx, target.(T), p.(P), arg)
		})
}

func (r *Registry) put(k bindingKey, b binding) {
	if r.frozen {
		panic(ErrRegistryFrozen)
	}
	if r.bindings == nil {
		r.bindings = make(map[bindingKey]binding)
	}
	r.bindings[k] = b
}

func (r *Registry) lookup(ev *Event, target, p any) (Callback, bool) {
	if r == nil {
		return nil, false
	}
	b, ok := r.bindings[bindingKey{ev.name, reflect.TypeOf(target), reflect.TypeOf(p)}]
	if !ok {
		return nil, false
	}
	return func(ctx context.Context, arg any) (Result, error) {
		return b(ctx, target, p, arg)
	}, true
}

func (r *Registry) binds(target, p any) bool {
	if r == nil {
		return false
	}
	tt, pt := reflect.TypeOf(target), reflect.TypeOf(p)
	for k := range r.bindings {
		if k.target == tt && k.plugin == pt {
			return true
		}
	}
	return false
}

// Len returns the number of bindings.
func (r *Registry) Len() int { return len(r.bindings) }

// Freeze ends registration. It is idempotent.
func (r *Registry) Freeze() {
	if r != nil {
		r.frozen = true
	}
}

// Frozen reports whether Freeze has run.
func (r *Registry) Frozen() bool { return r != nil && r.frozen }
