package route

import "errors"

var (
	ErrInvalidTemplate    = errors.New("invalid route template")
	ErrParamDelimiter     = errors.New("param delimiter must be balanced")
	ErrInvalidPlaceholder = errors.New("invalid placeholder name")
	ErrInvalidRegexp      = errors.New("invalid route path pattern regexp")
	ErrDuplicateParam     = errors.New("duplicate parameter name")
	ErrUnknownParam       = errors.New("placeholder does not name a known parameter")
	ErrOptionalOrder      = errors.New("required placeholder follows an optional one")
	ErrConflict           = errors.New("route conflict")
	ErrMissingParam       = errors.New("missing path parameter")
	ErrInvalidParamValue  = errors.New("path parameter value does not match its pattern")
)
