package plugin

import (
	"context"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/pkg/async"
)

// Mode is an execution model.
type Mode uint8

const (
	// ModeBlocking runs each step to completion on the calling goroutine.
	ModeBlocking Mode = iota + 1
	// ModeCooperative awaits async steps with context-aware suspension points.
	ModeCooperative
)

func (m Mode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeCooperative:
		return "cooperative"
	}
	return "unknown"
}

// Callback handles one event for one plugin.
type Callback func(ctx context.Context, arg any) (Result, error)

// AsyncCallback is the cooperative form of Callback.
type AsyncCallback func(ctx context.Context, arg any) *async.Future[Result]

// Event is a named lifecycle point plugins can handle.
type Event struct {
	name      string
	streaming bool
	only      Mode
	method    func(p any) Callback
	async     func(p any) AsyncCallback
}

// EventOption configures NewEvent.
type EventOption func(*Event)

// Streaming feeds each handler's replacement to the next handler.
func Streaming() EventOption {
	return func(e *Event) { e.streaming = true }
}

// OnlyIn restricts the event to one execution model. Emitting it in the other
// model is a no-op.
func OnlyIn(m Mode) EventOption {
	return func(e *Event) { e.only = m }
}

// WithAsync sets the extractor of a plugin's cooperative handler.
func WithAsync(fn func(p any) AsyncCallback) EventOption {
	return func(e *Event) { e.async = fn }
}

// NewEvent declares an event. method extracts a plugin's handler, returning
// nil when the plugin does not handle the event.
func NewEvent(name string, method func(p any) Callback, opts ...EventOption) *Event {
	e := &Event{name: name, method: method}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Event) Name() string      { return e.name }
func (e *Event) IsStreaming() bool { return e.streaming }

// Allows reports whether the event may be emitted in mode m.
func (e *Event) Allows(m Mode) bool {
	return e.only == 0 || e.only == m
}

// handler picks the plugin's handler for mode m. Cooperative mode prefers the
// async variant; each mode falls back to the other form.
func (e *Event) handler(p any, m Mode) Callback {
	var (
		blockingFn Callback
		asyncFn    AsyncCallback
	)
	if e.method != nil {
		blockingFn = e.method(p)
	}
	if e.async != nil {
		asyncFn = e.async(p)
	}

	switch {
	case asyncFn != nil && (m == ModeCooperative || blockingFn == nil):
		return func(ctx context.Context, arg any) (Result, error) {
			if m == ModeCooperative {
				return asyncFn(ctx, arg).AwaitContext(ctx)
			}
			return asyncFn(ctx, arg).Await()
		}
	case blockingFn != nil:
		return blockingFn
	}
	return nil
}

// Built-in lifecycle events.
var (
	// ProcessRequest runs before the handler with the current *message.Request.
	ProcessRequest = NewEvent("process_request",
		func(p any) Callback {
			rp, ok := p.(RequestProcessor)
			if !ok {
				return nil
			}
			return func(ctx context.Context, arg any) (Result, error) {
				req, ok := arg.(*message.Request)
				if !ok {
					return Unchanged(), nil
				}
				return rp.ProcessRequest(ctx, req)
			}
		},
		Streaming(),
		WithAsync(func(p any) AsyncCallback {
			rp, ok := p.(AsyncRequestProcessor)
			if !ok {
				return nil
			}
			return func(ctx context.Context, arg any) *async.Future[Result] {
				req, ok := arg.(*message.Request)
				if !ok {
					return async.Resolved(Unchanged(), nil)
				}
				return rp.ProcessRequestAsync(ctx, req)
			}
		}),
	)

	// ProcessResponse runs after the handler with the current *message.Response.
	ProcessResponse = NewEvent("process_response",
		func(p any) Callback {
			rp, ok := p.(ResponseProcessor)
			if !ok {
				return nil
			}
			return func(ctx context.Context, arg any) (Result, error) {
				resp, ok := arg.(*message.Response)
				if !ok {
					return Unchanged(), nil
				}
				return rp.ProcessResponse(ctx, resp)
			}
		},
		Streaming(),
		WithAsync(func(p any) AsyncCallback {
			rp, ok := p.(AsyncResponseProcessor)
			if !ok {
				return nil
			}
			return func(ctx context.Context, arg any) *async.Future[Result] {
				resp, ok := arg.(*message.Response)
				if !ok {
					return async.Resolved(Unchanged(), nil)
				}
				return rp.ProcessResponseAsync(ctx, resp)
			}
		}),
	)

	// HandleError runs with the *message.Error no error hook claimed.
	HandleError = NewEvent("handle_error",
		func(p any) Callback {
			eh, ok := p.(ErrorHandler)
			if !ok {
				return nil
			}
			return func(ctx context.Context, arg any) (Result, error) {
				e, ok := arg.(*message.Error)
				if !ok {
					return Unchanged(), nil
				}
				return eh.HandleError(ctx, e)
			}
		},
		WithAsync(func(p any) AsyncCallback {
			eh, ok := p.(AsyncErrorHandler)
			if !ok {
				return nil
			}
			return func(ctx context.Context, arg any) *async.Future[Result] {
				e, ok := arg.(*message.Error)
				if !ok {
					return async.Resolved(Unchanged(), nil)
				}
				return eh.HandleErrorAsync(ctx, e)
			}
		}),
	)
)
