package binder

import (
	"context"

	"github.com/dmitrymomot/relay/core/message"
)

// Header binds request headers declared with `header:"X-Name"` tags.
// Fields without a header tag are left untouched.
func Header() Binder {
	return func(_ context.Context, req *message.Request, v any) error {
		return bindFields(v, "header", false, req.Header.Values, ErrFailedToParseHeader)
	}
}
