package logger

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Attribute keys shared by the engine, plugins and backends.
const (
	KeyError      = "error"
	KeyErrors     = "errors"
	KeyRequestID  = "request_id"
	KeyTraceID    = "trace_id"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatusCode = "status_code"
	KeyRoute      = "route"
	KeyOperation  = "operation"
	KeyRetryIndex = "retry_index"
	KeyComponent  = "component"
	KeyEvent      = "event"
	KeyHook       = "hook"
)

// Helpers that describe optional data return the zero Attr for zero input,
// which slog handlers drop. They can be passed unconditionally.

func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// Errors groups the non-nil errors by argument position.
func Errors(errs ...error) slog.Attr {
	var group []any
	for i, err := range errs {
		if err != nil {
			group = append(group, slog.Any(strconv.Itoa(i), err))
		}
	}
	if group == nil {
		return slog.Attr{}
	}
	return slog.Group(KeyErrors, group...)
}

func RequestID(id string) slog.Attr   { return optional(KeyRequestID, id) }
func TraceID(id string) slog.Attr     { return optional(KeyTraceID, id) }
func Route(route string) slog.Attr    { return optional(KeyRoute, route) }
func Method(method string) slog.Attr  { return slog.String(KeyMethod, method) }
func Path(path string) slog.Attr      { return slog.String(KeyPath, path) }
func StatusCode(code int) slog.Attr   { return slog.Int(KeyStatusCode, code) }
func RetryIndex(i int) slog.Attr      { return slog.Int(KeyRetryIndex, i) }
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }
func Event(name string) slog.Attr     { return slog.String(KeyEvent, name) }
func Hook(name string) slog.Attr      { return slog.String(KeyHook, name) }

// Operation renders an operation name stack, outermost first: "api > users.get".
func Operation(names ...string) slog.Attr {
	return optional(KeyOperation, strings.Join(names, " > "))
}

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

// Elapsed is the time since start, or nothing when start is unset.
func Elapsed(start time.Time) slog.Attr {
	if start.IsZero() {
		return slog.Attr{}
	}
	return slog.Duration("elapsed", time.Since(start))
}

// Key is slog.Any that drops nil values.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}
