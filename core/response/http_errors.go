package response

import (
	"maps"
	"net/http"
	"strings"
)

// HTTPError is both an error handlers may return and the JSON body written
// for failed exchanges. Status stays out of the body.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

var (
	ErrBadRequest          = statusError(http.StatusBadRequest)
	ErrUnauthorized        = statusError(http.StatusUnauthorized)
	ErrForbidden           = statusError(http.StatusForbidden)
	ErrNotFound            = statusError(http.StatusNotFound)
	ErrMethodNotAllowed    = statusError(http.StatusMethodNotAllowed)
	ErrConflict            = statusError(http.StatusConflict)
	ErrUnprocessableEntity = statusError(http.StatusUnprocessableEntity)
	ErrTooManyRequests     = statusError(http.StatusTooManyRequests)
	ErrInternalServerError = statusError(http.StatusInternalServerError)
	ErrBadGateway          = statusError(http.StatusBadGateway)
	ErrServiceUnavailable  = statusError(http.StatusServiceUnavailable)
	ErrGatewayTimeout      = statusError(http.StatusGatewayTimeout)
)

func statusError(status int) HTTPError {
	text := http.StatusText(status)
	code := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-':
			return '_'
		}
		return -1
	}, strings.ToLower(text))
	return HTTPError{Status: status, Code: code, Message: text}
}

// ForStatus returns the error for an error status; anything else is a 500.
// Codes are snake_case status texts: 405 is "method_not_allowed".
func ForStatus(status int) HTTPError {
	if status < 400 || http.StatusText(status) == "" {
		return ErrInternalServerError
	}
	return statusError(status)
}

// NewHTTPError is a 500 carrying message.
func NewHTTPError(message string) HTTPError {
	return ErrInternalServerError.WithMessage(message)
}

func (e HTTPError) Error() string   { return e.Message }
func (e HTTPError) StatusCode() int { return e.Status }

func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails merges details into a copy of e; the receiver is untouched.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	merged := maps.Clone(e.Details)
	if merged == nil {
		merged = make(map[string]any, len(details))
	}
	maps.Copy(merged, details)
	e.Details = merged
	return e
}

// WithError records err's text under the "cause" detail.
func (e HTTPError) WithError(err error) HTTPError {
	if err == nil {
		return e
	}
	return e.WithDetails(map[string]any{"cause": err.Error()})
}
