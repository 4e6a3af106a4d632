package plugin

import "github.com/dmitrymomot/relay/core/message"

type resultKind uint8

const (
	resultUnchanged resultKind = iota
	resultReplace
	resultRedo
)

// Result is what a plugin callback returns: nothing, a replacement value, or a
// request to run through the lifecycle again.
type Result struct {
	kind  resultKind
	value any
	redo  *message.Request
}

// Unchanged leaves the current value as is.
func Unchanged() Result { return Result{} }

// Replace substitutes v for the current value.
func Replace(v any) Result { return Result{kind: resultReplace, value: v} }

// Redo restarts request processing with req.
func Redo(req *message.Request) Result { return Result{kind: resultRedo, redo: req} }

// Value returns the replacement, if any.
func (r Result) Value() (any, bool) { return r.value, r.kind == resultReplace }

// RedoRequest returns the request to redo, if any.
func (r Result) RedoRequest() (*message.Request, bool) { return r.redo, r.kind == resultRedo }

func (r Result) IsUnchanged() bool { return r.kind == resultUnchanged }
func (r Result) IsRedo() bool      { return r.kind == resultRedo }
