package hook

import (
	"context"
	"slices"

	"github.com/dmitrymomot/relay/core/message"
)

// Kind is the lifecycle point a hook runs at.
type Kind uint8

const (
	KindBefore Kind = iota + 1
	KindAfter
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindBefore:
		return "before"
	case KindAfter:
		return "after"
	case KindError:
		return "error"
	}
	return "unknown"
}

// BeforeFunc runs before the handler. A non-nil error aborts the request.
type BeforeFunc func(ctx context.Context, req *message.Request) error

// AfterFunc runs after the handler. A non-nil result replaces the response;
// a *message.Request result asks the engine to redo the request.
type AfterFunc func(ctx context.Context, resp *message.Response) (any, error)

// ErrorFunc handles a claimed error. A non-nil result becomes the response;
// a *message.Request result asks the engine to redo the request.
type ErrorFunc func(ctx context.Context, e *message.Error) (any, error)

// Hook is a function attached to routes at one lifecycle point.
type Hook struct {
	name     string
	kind     Kind
	selector Selector
	priority int
	claims   []Claim

	before  BeforeFunc
	after   AfterFunc
	onError ErrorFunc
}

// Before creates a before-hook.
func Before(sel Selector, fn BeforeFunc) *Hook {
	return &Hook{kind: KindBefore, selector: sel, before: fn}
}

// After creates an after-hook.
func After(sel Selector, fn AfterFunc) *Hook {
	return &Hook{kind: KindAfter, selector: sel, after: fn}
}

// OnError creates an error hook. Without claims it handles every error except signals.
func OnError(sel Selector, fn ErrorFunc, claims ...Claim) *Hook {
	if len(claims) == 0 {
		claims = []Claim{Any()}
	}
	return &Hook{kind: KindError, selector: sel, onError: fn, claims: claims}
}

// Named sets the hook name used in logs.
func (h *Hook) Named(name string) *Hook {
	h.name = name
	return h
}

// WithPriority sets the priority. Higher priorities attach first.
func (h *Hook) WithPriority(p int) *Hook {
	h.priority = p
	return h
}

func (h *Hook) Name() string {
	if h.name == "" {
		return h.kind.String() + ":" + h.selector.String()
	}
	return h.name
}

func (h *Hook) Kind() Kind         { return h.kind }
func (h *Hook) Selector() Selector { return h.selector }
func (h *Hook) Priority() int      { return h.priority }
func (h *Hook) Claims() []Claim    { return h.claims }

// Depth returns the shallowest depth any of the hook's claims matches err at.
func (h *Hook) Depth(err error) (int, bool) {
	best, found := 0, false
	for _, c := range h.claims {
		if d, ok := c.Depth(err); ok && (!found || d < best) {
			best, found = d, true
		}
	}
	return best, found
}

// RunBefore calls a before-hook.
func (h *Hook) RunBefore(ctx context.Context, req *message.Request) error {
	if h.before == nil {
		return nil
	}
	return h.before(ctx, req)
}

// RunAfter calls an after-hook.
func (h *Hook) RunAfter(ctx context.Context, resp *message.Response) (any, error) {
	if h.after == nil {
		return nil, nil
	}
	return h.after(ctx, resp)
}

// RunError calls an error hook.
func (h *Hook) RunError(ctx context.Context, e *message.Error) (any, error) {
	if h.onError == nil {
		return nil, nil
	}
	return h.onError(ctx, e)
}

// Sort orders hooks by descending priority, keeping declaration order for ties.
func Sort(hooks []*Hook) {
	slices.SortStableFunc(hooks, func(a, b *Hook) int {
		return b.priority - a.priority
	})
}
