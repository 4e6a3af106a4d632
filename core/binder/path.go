package binder

import (
	"context"
	"reflect"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// Path binds the parameters extracted during route resolution.
//
// It supports struct tags for custom parameter names:
//   - `path:"name"` - binds to path parameter "name"
//   - `path:"-"` - skips the field
//
// Supported types:
//   - Basic types: string, int, int64, uint, uint64, float32, float64, bool
//   - Pointers for optional fields
//
// Example:
//
//	type CommentsRequest struct {
//		ArticleID int  `path:"id"`
//		Page      *int `path:"page"` // optional trailing placeholder
//	}
//
//	api.Get("articles/{id}/comments/{page?}", dispatch.Bind(listComments))
func Path() Binder {
	return PathFrom(func(ctx context.Context, _ *message.Request) map[string]string {
		return reqctx.PathParams.Value(reqctx.FromContext(ctx))
	})
}

// PathFrom binds path parameters supplied by extractor, for backends that
// resolve paths themselves.
func PathFrom(extractor func(ctx context.Context, req *message.Request) map[string]string) Binder {
	return func(ctx context.Context, req *message.Request, v any) error {
		params := extractor(ctx, req)
		lookup := func(name string) []string {
			if val := params[name]; val != "" {
				return []string{val}
			}
			return nil
		}
		return bindFields(v, "path", true, lookup, ErrFailedToParsePath)
	}
}

// PathFields returns the path parameter names declared with explicit `path`
// tags on the struct v points to.
func PathFields(v any) []string {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for _, f := range fieldsOf(rt, "path", false) {
		names = append(names, f.name)
	}
	return names
}
