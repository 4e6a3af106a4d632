package dispatch

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/relay/core/hook"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// run is the state machine of one operation dispatch:
// BEFORE-HOOKS once, then PROCESS-REQUEST, EXECUTE, PROCESS-RESPONSE and
// AFTER-HOOKS per attempt, restarting at PROCESS-REQUEST on redo.
type run struct {
	settings *settings
	session  *plugin.Session
	store    *reqctx.Store
	mode     plugin.Mode
	hooks    hook.Set
	targets  []plugin.Target
	op       *Operation
}

func (r *run) serve(ctx context.Context, req *message.Request) (*message.Response, error) {
	for _, h := range r.hooks.Before {
		err := protect(func() error { return h.RunBefore(ctx, req) })
		if err == nil {
			continue
		}
		resp, redo, err := r.handle(ctx, req, err)
		if err != nil {
			return nil, err
		}
		if redo != nil {
			return r.loop(ctx, redo, 1)
		}
		return resp, nil
	}
	return r.loop(ctx, req, 0)
}

func (r *run) loop(ctx context.Context, req *message.Request, index int) (*message.Response, error) {
	prefs := r.settings.prefs
	for ; ; index++ {
		if index >= prefs.MaxRetryLoops {
			return r.fatal(ctx, req, &message.MaxRetriesExceededError{Max: prefs.MaxRetryLoops})
		}
		if index > 0 && prefs.MaxRetryTime > 0 {
			if elapsed := reqctx.Elapsed(r.store); elapsed > prefs.MaxRetryTime {
				return r.fatal(ctx, req, &message.MaxRetriesTimeoutExceededError{Budget: prefs.MaxRetryTime, Elapsed: elapsed})
			}
		}

		reqctx.RetryIndex.Set(r.store, index)
		reqctx.Idempotent.Set(r.store, r.op.idempotentFor(req))

		resp, redo, err := r.attempt(ctx, req)
		if err != nil {
			resp, redo, err = r.handle(ctx, req, err)
			if err != nil {
				return nil, err
			}
		}
		if redo != nil {
			req = redo
			continue
		}
		return resp, nil
	}
}

// fatal routes a retry-bound error. Handlers may turn it into a response,
// but a redo is ignored.
func (r *run) fatal(ctx context.Context, req *message.Request, err error) (*message.Response, error) {
	resp, redo, herr := r.handle(ctx, req, err)
	if herr != nil {
		return nil, herr
	}
	if redo != nil {
		r.settings.logger.DebugContext(ctx, "redo ignored after fatal error",
			logger.Component("dispatch"),
			logger.Error(err))
		return nil, err
	}
	return resp, nil
}

func (r *run) attempt(ctx context.Context, req *message.Request) (resp *message.Response, redo *message.Request, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, redo, err = nil, nil, newPanicError(p)
		}
	}()

	res, err := r.session.Emit(ctx, plugin.ProcessRequest, r.mode, req, r.targets...)
	if err != nil {
		return nil, nil, err
	}
	if next, ok := res.RedoRequest(); ok {
		return nil, next, nil
	}
	if v, ok := res.Value(); ok {
		next, ok := v.(*message.Request)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %T", ErrBadReplacement, v)
		}
		req = next
	}

	result, err := r.op.invoke(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if resp, redo, err = replacement(req, result); err != nil || redo != nil {
		return nil, redo, err
	}

	res, err = r.session.Emit(ctx, plugin.ProcessResponse, r.mode, resp, r.targets...)
	if err != nil {
		return nil, nil, err
	}
	if next, ok := res.RedoRequest(); ok {
		return nil, next, nil
	}
	if v, ok := res.Value(); ok {
		if resp, redo, err = replacement(req, v); err != nil || redo != nil {
			return nil, redo, err
		}
	}

	for _, h := range r.hooks.After {
		out, err := h.RunAfter(ctx, resp)
		if err != nil {
			return nil, nil, err
		}
		if out == nil {
			continue
		}
		if resp, redo, err = replacement(req, out); err != nil || redo != nil {
			return nil, redo, err
		}
	}
	return resp, nil, nil
}

// handle routes err: first to the most specific error hook, then to the
// HandleError event. When neither produces a result the original error is
// returned.
func (r *run) handle(ctx context.Context, req *message.Request, err error) (*message.Response, *message.Request, error) {
	e := message.NewError(err, req)
	e.Status = r.settings.statuses.Status(err)

	if h, ok := r.hooks.ErrorHook(err); ok {
		var out any
		herr := protect(func() error {
			var err error
			out, err = h.RunError(ctx, e)
			return err
		})
		if herr != nil {
			return nil, nil, herr
		}
		if out != nil {
			r.settings.logger.DebugContext(ctx, "error handled by hook",
				logger.Hook(h.Name()),
				logger.Error(err))
			return errorReplacement(e, out)
		}
	}

	var res plugin.Result
	perr := protect(func() error {
		var err error
		res, err = r.session.Emit(ctx, plugin.HandleError, r.mode, e, r.targets...)
		return err
	})
	if perr != nil {
		return nil, nil, perr
	}
	if next, ok := res.RedoRequest(); ok {
		return nil, next, nil
	}
	if v, ok := res.Value(); ok {
		return errorReplacement(e, v)
	}
	if e.Result != nil {
		return errorReplacement(e, e.Result)
	}
	return nil, nil, err
}

// replacement turns a handler, plugin or hook value into the next response,
// or a redo when the value is a request.
func replacement(req *message.Request, v any) (*message.Response, *message.Request, error) {
	if next, ok := v.(*message.Request); ok {
		return nil, next, nil
	}
	resp, err := message.FromResult(req, v)
	return resp, nil, err
}

// errorReplacement is replacement for values produced while handling e.
// Plain values keep the error's status and headers.
func errorReplacement(e *message.Error, v any) (*message.Response, *message.Request, error) {
	if _, ok := v.(*message.Response); ok {
		return replacement(e.Request, v)
	}
	resp, redo, err := replacement(e.Request, v)
	if err != nil || redo != nil {
		return nil, redo, err
	}
	resp.Status = e.Status
	for k, vs := range e.Headers {
		resp.Header[k] = append([]string(nil), vs...)
	}
	return resp, nil, nil
}

// protect converts a panic in fn into a *PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()
	return fn()
}
