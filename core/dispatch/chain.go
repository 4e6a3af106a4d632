package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/dmitrymomot/relay/core/config"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// Invoker is a bare request handler the chain builder wraps.
type Invoker func(ctx context.Context, req *message.Request) (*message.Response, error)

// ChainConfig bounds the retry loop of a built chain.
type ChainConfig struct {
	// MaxLoops bounds iterations. Zero means config.DefaultMaxRetryLoops.
	MaxLoops int
	// Budget bounds the time spent retrying. Zero disables it.
	Budget time.Duration
	// Mode selects blocking or async plugin callbacks.
	Mode plugin.Mode
	// Bus resolves registry bindings and plugin instances.
	Bus *plugin.Bus
	// Idempotent overrides the method-based idempotency flag.
	Idempotent func(*message.Request) bool
}

type layer struct {
	target plugin.Target
	plugin any
}

type step func(ctx context.Context, sess *plugin.Session, req *message.Request) (*message.Response, error)

// redoSignal carries a redo request out through the wrapper layers.
type redoSignal struct {
	req *message.Request
}

func (*redoSignal) Error() string { return "dispatch: redo" }

// BuildChain folds the request, response and error transformers of the
// plugins attached to targets around bare. Targets are given nearest first;
// the nearest plugin is the outermost layer, and per plugin type only the
// nearest attachment takes part. Plugins without any transformer are skipped.
//
// The returned invoker runs the same bounded retry loop as a served
// operation: a redo from any layer restarts the chain with the new request.
func BuildChain(bare Invoker, targets []plugin.Target, cfg ChainConfig) Invoker {
	if cfg.MaxLoops <= 0 {
		cfg.MaxLoops = config.DefaultMaxRetryLoops
	}
	if cfg.Mode == 0 {
		cfg.Mode = plugin.ModeBlocking
	}
	if cfg.Bus == nil {
		cfg.Bus = plugin.NewBus(nil, nil)
	}
	if cfg.Idempotent == nil {
		cfg.Idempotent = (*message.Request).Idempotent
	}

	next := step(func(ctx context.Context, _ *plugin.Session, req *message.Request) (*message.Response, error) {
		resp, err := bare(ctx, req)
		if resp != nil && resp.Request == nil {
			resp.Request = req
		}
		return resp, err
	})
	layers := collectLayers(cfg.Bus, targets)
	for i := len(layers) - 1; i >= 0; i-- {
		next = wrap(layers[i], next, cfg.Mode)
	}
	chain := next

	return func(ctx context.Context, req *message.Request) (*message.Response, error) {
		ctx, s := reqctx.Ensure(ctx)
		sess := cfg.Bus.Session()
		start := time.Now()

		for index := 0; ; index++ {
			if index >= cfg.MaxLoops {
				return nil, &message.MaxRetriesExceededError{Max: cfg.MaxLoops}
			}
			if index > 0 && cfg.Budget > 0 {
				if elapsed := time.Since(start); elapsed > cfg.Budget {
					return nil, &message.MaxRetriesTimeoutExceededError{Budget: cfg.Budget, Elapsed: elapsed}
				}
			}
			reqctx.RetryIndex.Set(s, index)
			reqctx.Idempotent.Set(s, cfg.Idempotent(req))

			var resp *message.Response
			err := protect(func() error {
				var err error
				resp, err = chain(ctx, sess, req)
				return err
			})

			var signal *redoSignal
			if errors.As(err, &signal) {
				req = signal.req
				continue
			}
			return resp, err
		}
	}
}

func collectLayers(bus *plugin.Bus, targets []plugin.Target) []layer {
	var (
		out  []layer
		seen = make(map[reflect.Type]struct{})
	)
	for _, t := range targets {
		if t == nil {
			continue
		}
		for _, p := range t.Plugins() {
			typ := reflect.TypeOf(p)
			if _, ok := seen[typ]; ok {
				continue
			}
			if !bus.Applies(t, p) {
				continue
			}
			seen[typ] = struct{}{}
			out = append(out, layer{target: t, plugin: p})
		}
	}
	return out
}

func wrap(l layer, next step, mode plugin.Mode) step {
	return func(ctx context.Context, sess *plugin.Session, req *message.Request) (*message.Response, error) {
		resp, err := func() (*message.Response, error) {
			res, err := sess.EmitTo(ctx, plugin.ProcessRequest, mode, req, l.target, l.plugin)
			if err != nil {
				return nil, err
			}
			if redo, ok := res.RedoRequest(); ok {
				return nil, &redoSignal{req: redo}
			}
			if v, ok := res.Value(); ok {
				nr, ok := v.(*message.Request)
				if !ok {
					return nil, fmt.Errorf("%w: %T", ErrBadReplacement, v)
				}
				req = nr
			}
			return next(ctx, sess, req)
		}()

		if err != nil {
			var signal *redoSignal
			if errors.As(err, &signal) || message.IsFatal(err) {
				return nil, err
			}
			res, herr := sess.EmitTo(ctx, plugin.HandleError, mode, message.NewError(err, req), l.target, l.plugin)
			if herr != nil {
				return nil, herr
			}
			if redo, ok := res.RedoRequest(); ok {
				return nil, &redoSignal{req: redo}
			}
			v, ok := res.Value()
			if !ok {
				return nil, err
			}
			r, redo, cerr := replacement(req, v)
			if cerr != nil {
				return nil, cerr
			}
			if redo != nil {
				return nil, &redoSignal{req: redo}
			}
			resp = r
		}

		res, err := sess.EmitTo(ctx, plugin.ProcessResponse, mode, resp, l.target, l.plugin)
		if err != nil {
			return nil, err
		}
		if redo, ok := res.RedoRequest(); ok {
			return nil, &redoSignal{req: redo}
		}
		if v, ok := res.Value(); ok {
			r, redo, cerr := replacement(req, v)
			if cerr != nil {
				return nil, cerr
			}
			if redo != nil {
				return nil, &redoSignal{req: redo}
			}
			resp = r
		}
		return resp, nil
	}
}
