package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/relay/core/message"
)

var (
	ErrNilBackend       = errors.New("client backend is required")
	ErrInvalidBaseURL   = errors.New("invalid base URL")
	ErrTransport        = errors.New("transport failure")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// StatusError reports a response outside the 2xx/3xx range.
type StatusError struct {
	Response *message.Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUnexpectedStatus, e.Response.Status, http.StatusText(e.Response.Status))
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// StatusCode reports the status of the failed response, so a served
// operation that forwards the error answers with the same code.
func (e *StatusError) StatusCode() int { return e.Response.Status }
