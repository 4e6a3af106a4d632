package message

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrRouteNotFound      = errors.New("route not found")
	ErrMethodNotAllowed   = errors.New("method not allowed")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrMaxRetriesTimeout  = errors.New("max retries timeout exceeded")
	ErrRedirect           = errors.New("redirect")
)

// StatusCoder is implemented by errors that carry their own status code.
type StatusCoder interface {
	StatusCode() int
}

// HeaderProvider is implemented by errors that contribute response headers.
type HeaderProvider interface {
	ResponseHeaders() http.Header
}

// Signal marks errors used for control flow rather than failure.
// Error hooks only claim signals of their exact type.
type Signal interface {
	error
	Signal()
}

// IsFatal reports whether err ends the dispatch loop without any retry.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMaxRetriesExceeded) || errors.Is(err, ErrMaxRetriesTimeout)
}

// NotFoundError reports a path no route matched.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return ErrRouteNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRouteNotFound, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrRouteNotFound }
func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }

// MethodNotAllowedError reports a path matched only by routes bound to other methods.
type MethodNotAllowedError struct {
	Method  string
	Path    string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("%s: %s %s (allowed: %s)", ErrMethodNotAllowed, e.Method, e.Path, strings.Join(e.Allowed, ", "))
}

func (e *MethodNotAllowedError) Is(target error) bool { return target == ErrMethodNotAllowed }
func (e *MethodNotAllowedError) StatusCode() int      { return http.StatusMethodNotAllowed }

func (e *MethodNotAllowedError) ResponseHeaders() http.Header {
	h := make(http.Header)
	if len(e.Allowed) > 0 {
		h.Set("Allow", strings.Join(e.Allowed, ", "))
	}
	return h
}

// ValidationError reports a request that failed parameter parsing or validation.
type ValidationError struct {
	// Source names where the value came from: path, query, header, body.
	Source string
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	if e.Source != "" {
		b.WriteString(" [" + e.Source + "]")
	}
	if e.Field != "" {
		b.WriteString(": " + e.Field)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error        { return e.Err }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) StatusCode() int      { return http.StatusBadRequest }

// UnauthorizedError reports missing or invalid credentials.
type UnauthorizedError struct {
	Message string
	// Scheme is sent back in WWW-Authenticate when set.
	Scheme string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return ErrUnauthorized.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnauthorized, e.Message)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *UnauthorizedError) StatusCode() int      { return http.StatusUnauthorized }

func (e *UnauthorizedError) ResponseHeaders() http.Header {
	h := make(http.Header)
	if e.Scheme != "" {
		h.Set("WWW-Authenticate", e.Scheme)
	}
	return h
}

// PermissionDeniedError reports an authenticated caller lacking permission.
type PermissionDeniedError struct {
	Message string
}

func (e *PermissionDeniedError) Error() string {
	if e.Message == "" {
		return ErrPermissionDenied.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPermissionDenied, e.Message)
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }
func (e *PermissionDeniedError) StatusCode() int      { return http.StatusForbidden }

// MaxRetriesExceededError is raised when a dispatch loop reaches its iteration bound.
type MaxRetriesExceededError struct {
	Max int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("%s: %d", ErrMaxRetriesExceeded, e.Max)
}

func (e *MaxRetriesExceededError) Is(target error) bool { return target == ErrMaxRetriesExceeded }
func (e *MaxRetriesExceededError) StatusCode() int      { return http.StatusInternalServerError }

// MaxRetriesTimeoutExceededError is raised when a dispatch loop exhausts its time budget.
type MaxRetriesTimeoutExceededError struct {
	Budget  time.Duration
	Elapsed time.Duration
}

func (e *MaxRetriesTimeoutExceededError) Error() string {
	return fmt.Sprintf("%s: %s elapsed, budget %s", ErrMaxRetriesTimeout, e.Elapsed, e.Budget)
}

func (e *MaxRetriesTimeoutExceededError) Is(target error) bool { return target == ErrMaxRetriesTimeout }
func (e *MaxRetriesTimeoutExceededError) StatusCode() int      { return http.StatusInternalServerError }

// RedirectError asks the engine to answer with a redirect.
type RedirectError struct {
	Location string
	Status   int
}

func (e *RedirectError) Error() string        { return fmt.Sprintf("%s: %s", ErrRedirect, e.Location) }
func (e *RedirectError) Is(target error) bool { return target == ErrRedirect }
func (e *RedirectError) Signal()              {}

func (e *RedirectError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusFound
	}
	return e.Status
}

func (e *RedirectError) ResponseHeaders() http.Header {
	h := make(http.Header)
	h.Set("Location", e.Location)
	return h
}
