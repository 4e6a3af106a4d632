package dispatch

import (
	"context"

	"github.com/dmitrymomot/relay/core/binder"
	"github.com/dmitrymomot/relay/core/message"
)

// Bind adapts a typed handler: the request is bound into a fresh P with
// binders (binder.Default when none are given) before fn runs. Binding
// failures surface as *message.ValidationError.
//
//	type getUser struct {
//		ID int `path:"id"`
//	}
//
//	api.Get("users/{id:int}", dispatch.Bind(func(ctx context.Context, p getUser) (any, error) {
//		return users.Find(ctx, p.ID)
//	}), dispatch.Params[getUser]())
func Bind[P any](fn func(ctx context.Context, params P) (any, error), binders ...binder.Binder) HandlerFunc {
	return func(ctx context.Context, req *message.Request) (any, error) {
		var p P
		if err := binder.Bind(ctx, req, &p, binders...); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}
