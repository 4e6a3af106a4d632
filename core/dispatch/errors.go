package dispatch

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	ErrNilHandler     = errors.New("nil handler")
	ErrNilGroup       = errors.New("nil group")
	ErrInvalidMethod  = errors.New("invalid method")
	ErrAlreadyMounted = errors.New("group already mounted")
	ErrMountCycle     = errors.New("group mounted into its own subtree")
	ErrBuilt          = errors.New("group already built")
	ErrBadReplacement = errors.New("plugin replaced the request with a non-request value")
)

// PanicError wraps a value recovered from a panicking handler, hook or plugin.
type PanicError struct {
	Value any
	stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Stack returns the stack captured at the recovery point.
func (e *PanicError) Stack() string {
	return string(e.stack)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
