package binder

import (
	"context"
	"errors"

	"github.com/dmitrymomot/relay/core/message"
)

// Binder binds request data to a Go value.
// It extracts and maps data from one part of a request (path parameters,
// query, headers, JSON or form body) into a strongly-typed structure.
type Binder func(ctx context.Context, req *message.Request, v any) error

// Default returns the binder chain used for typed operations and hooks:
// path, query, header and, when the request has a body, JSON or form.
func Default() []Binder {
	return []Binder{Path(), Query(), Header(), Body()}
}

// Bind applies binders in order. Failures are reported as *message.ValidationError.
func Bind(ctx context.Context, req *message.Request, v any, binders ...Binder) error {
	if len(binders) == 0 {
		binders = Default()
	}
	for _, bind := range binders {
		if err := bind(ctx, req, v); err != nil {
			if errors.Is(err, ErrBinderNotApplicable) {
				continue
			}
			return &message.ValidationError{Source: sourceOf(err), Err: err}
		}
	}
	return nil
}

func sourceOf(err error) string {
	switch {
	case errors.Is(err, ErrFailedToParsePath):
		return "path"
	case errors.Is(err, ErrFailedToParseQuery):
		return "query"
	case errors.Is(err, ErrFailedToParseHeader):
		return "header"
	case errors.Is(err, ErrFailedToParseJSON), errors.Is(err, ErrFailedToParseForm),
		errors.Is(err, ErrUnsupportedMediaType), errors.Is(err, ErrMissingContentType):
		return "body"
	}
	return ""
}
