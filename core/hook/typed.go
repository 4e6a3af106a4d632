package hook

import (
	"context"

	"github.com/dmitrymomot/relay/core/binder"
	"github.com/dmitrymomot/relay/core/message"
)

// BeforeWith creates a before-hook that binds its own parameters from the
// request, the same way a typed operation does.
func BeforeWith[P any](sel Selector, fn func(ctx context.Context, req *message.Request, params P) error, binders ...binder.Binder) *Hook {
	return Before(sel, func(ctx context.Context, req *message.Request) error {
		var p P
		if err := binder.Bind(ctx, req, &p, binders...); err != nil {
			return err
		}
		return fn(ctx, req, p)
	})
}

// AfterWith creates an after-hook that binds its own parameters from the
// request the response answers.
func AfterWith[P any](sel Selector, fn func(ctx context.Context, resp *message.Response, params P) (any, error), binders ...binder.Binder) *Hook {
	return After(sel, func(ctx context.Context, resp *message.Response) (any, error) {
		var p P
		if resp.Request != nil {
			if err := binder.Bind(ctx, resp.Request, &p, binders...); err != nil {
				return nil, err
			}
		}
		return fn(ctx, resp, p)
	})
}

// OnErrorWith creates an error hook that binds its own parameters from the
// failed request.
func OnErrorWith[P any](sel Selector, fn func(ctx context.Context, e *message.Error, params P) (any, error), claims ...Claim) *Hook {
	return OnError(sel, func(ctx context.Context, e *message.Error) (any, error) {
		var p P
		if e.Request != nil {
			if err := binder.Bind(ctx, e.Request, &p); err != nil {
				return nil, err
			}
		}
		return fn(ctx, e, p)
	}, claims...)
}
