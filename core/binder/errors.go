package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParseForm    = errors.New("failed to parse form data")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	ErrFailedToParseHeader  = errors.New("failed to parse headers")
	ErrMissingContentType   = errors.New("missing content type")

	// ErrBinderNotApplicable is returned by binders that have nothing to read,
	// such as Body on a request without one. Bind skips them.
	ErrBinderNotApplicable = errors.New("binder not applicable for this request")
)
