package binder

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/relay/core/message"
)

// Body picks the JSON or form binder from the request content type.
// Requests without a body are skipped.
func Body() Binder {
	jsonBinder, formBinder := JSON(), Form()
	return func(ctx context.Context, req *message.Request, v any) error {
		if len(req.Body) == 0 {
			return ErrBinderNotApplicable
		}

		switch ct := req.ContentType(); {
		case ct == "application/json" || strings.HasSuffix(ct, "+json"):
			return jsonBinder(ctx, req, v)
		case ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data":
			return formBinder(ctx, req, v)
		case ct == "":
			return fmt.Errorf("%w: body sent without content-type", ErrMissingContentType)
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ct)
		}
	}
}
