package message

import (
	"errors"
	"net/http"
)

// Error wraps a failure together with the request that produced it.
// Status and Headers are derived from the wrapped error; Result is free for
// error hooks and plugins to fill.
type Error struct {
	Err     error
	Request *Request
	Status  int
	Headers http.Header
	Result  any
}

// NewError wraps err. A nil err yields nil.
func NewError(err error, req *Request) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		err = existing.Err
	}
	return &Error{
		Err:     err,
		Request: req,
		Status:  StatusOf(err),
		Headers: HeadersOf(err),
	}
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the derived status.
func (e *Error) StatusCode() int { return e.Status }

// StatusOf returns the status carried by err or its chain, defaulting to 500.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if status := sc.StatusCode(); status > 0 {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HeadersOf merges the headers contributed by every error in err's chain.
func HeadersOf(err error) http.Header {
	h := make(http.Header)
	walk(err, func(e error) {
		hp, ok := e.(HeaderProvider)
		if !ok {
			return
		}
		for k, vs := range hp.ResponseHeaders() {
			if h.Get(k) == "" {
				h[k] = append([]string(nil), vs...)
			}
		}
	})
	return h
}

// walk visits err and every error reachable through Unwrap, depth first.
func walk(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		walk(x.Unwrap(), fn)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			walk(e, fn)
		}
	}
}
