package binder

import (
	"context"

	"github.com/dmitrymomot/relay/core/message"
)

// Query binds URL query parameters.
//
// Fields bind through `query:"name"` tags, or under their lowercased Go name
// when untagged; `query:"-"` skips a field. Slices collect repeated and
// comma-separated values, pointers stay nil when the parameter is absent.
//
//	type SearchRequest struct {
//		Query  string   `query:"q"`
//		Page   int      `query:"page"`
//		Tags   []string `query:"tags"` // ?tags=go&tags=web or ?tags=go,web
//		Active *bool    `query:"active"`
//	}
func Query() Binder {
	return func(_ context.Context, req *message.Request, v any) error {
		return bindFields(v, "query", true, lookupIn(req.Query()), ErrFailedToParseQuery)
	}
}
