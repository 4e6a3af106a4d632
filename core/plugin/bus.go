package plugin

import (
	"context"
	"io"
	"log/slog"
	"reflect"
)

// Bus dispatches events to the plugins of a list of targets.
type Bus struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBus creates a bus and freezes registry. registry and logger may be nil.
func NewBus(registry *Registry, logger *slog.Logger) *Bus {
	registry.Freeze()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{registry: registry, logger: logger}
}

// Session starts the plugin scope of one dispatch.
func (b *Bus) Session() *Session {
	return &Session{bus: b}
}

type instanceKey struct {
	target Target
	typ    reflect.Type
}

// Session emits events for one dispatch and owns the per-dispatch plugin instances.
// It is not safe for concurrent use.
type Session struct {
	bus       *Bus
	instances map[instanceKey]any
}

func (s *Session) instance(target Target, p any) any {
	proto, ok := p.(Instancer)
	if !ok {
		return p
	}
	k := instanceKey{target: target, typ: reflect.TypeOf(p)}
	if inst, ok := s.instances[k]; ok {
		return inst
	}
	if s.instances == nil {
		s.instances = make(map[instanceKey]any)
	}
	inst := proto.NewInstance()
	s.instances[k] = inst
	return inst
}

type entry struct {
	typ reflect.Type
	cb  Callback
}

// handlers collects one callback per plugin type, visiting targets nearest first.
func (s *Session) handlers(ev *Event, mode Mode, targets []Target) []entry {
	var (
		out  []entry
		seen = make(map[reflect.Type]struct{})
	)
	for _, target := range targets {
		if isNil(target) {
			continue
		}
		for _, attached := range target.Plugins() {
			typ := reflect.TypeOf(attached)
			if _, done := seen[typ]; done {
				continue
			}

			p := s.instance(target, attached)
			cb, ok := s.bus.registry.lookup(ev, target, p)
			if !ok {
				cb = ev.handler(p, mode)
			}
			if cb == nil {
				continue
			}
			seen[typ] = struct{}{}
			out = append(out, entry{typ: typ, cb: cb})
		}
	}
	return out
}

// Emit dispatches ev to the plugins of targets, nearest target first.
func (s *Session) Emit(ctx context.Context, ev *Event, mode Mode, arg any, targets ...Target) (Result, error) {
	if !ev.Allows(mode) {
		return Unchanged(), nil
	}

	handlers := s.handlers(ev, mode, targets)
	if len(handlers) == 0 {
		return Unchanged(), nil
	}

	var (
		last    = Unchanged()
		current = arg
	)
	for _, h := range handlers {
		res, err := h.cb(ctx, current)
		if err != nil {
			return Unchanged(), err
		}
		if res.IsRedo() {
			s.bus.logger.DebugContext(ctx, "plugin requested redo",
				slog.String("event", ev.name),
				slog.String("plugin", h.typ.String()))
			return res, nil
		}
		if v, ok := res.Value(); ok {
			last = res
			if ev.streaming {
				current = v
			}
		}
	}

	if ev.streaming && !last.IsUnchanged() {
		return Replace(current), nil
	}
	return last, nil
}

// EmitTo dispatches ev to the single plugin p attached to target.
func (s *Session) EmitTo(ctx context.Context, ev *Event, mode Mode, arg any, target Target, p any) (Result, error) {
	if !ev.Allows(mode) {
		return Unchanged(), nil
	}
	inst := s.instance(target, p)
	cb, ok := s.bus.registry.lookup(ev, target, inst)
	if !ok {
		cb = ev.handler(inst, mode)
	}
	if cb == nil {
		return Unchanged(), nil
	}
	return cb(ctx, arg)
}

// Applies reports whether p attached to target takes part in any event,
// either through its own methods or a registry binding.
func (b *Bus) Applies(target Target, p any) bool {
	return Has(p) || b.registry.binds(target, p)
}

// Handles reports whether any plugin of targets handles ev in mode.
func (s *Session) Handles(ev *Event, mode Mode, targets ...Target) bool {
	return ev.Allows(mode) && len(s.handlers(ev, mode, targets)) > 0
}

func isNil(target Target) bool {
	if target == nil {
		return true
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
