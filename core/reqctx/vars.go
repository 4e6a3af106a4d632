package reqctx

import "time"

// Well-known slots written by the dispatch engine.
var (
	// RetryIndex is the zero-based iteration of the current dispatch loop.
	RetryIndex = NewVar("relay.retry_index", Spec[int]{HasDefault: true})

	// Idempotent reports whether the current request may be retried safely.
	Idempotent = NewVar("relay.idempotent", Spec[bool]{HasDefault: true})

	// PathParams holds the parameters extracted while resolving routes.
	PathParams = NewVar("relay.path_params", Spec[map[string]string]{
		DefaultFunc: func() map[string]string { return map[string]string{} },
	})

	// UnmatchedRoute is the part of the path not yet consumed by route resolution.
	UnmatchedRoute = NewVar("relay.unmatched_route", Spec[string]{HasDefault: true})

	// AllowMethods lists the methods registered for a path that did not accept the request method.
	AllowMethods = NewVar("relay.allow_methods", Spec[[]string]{HasDefault: true})

	// OperationNames is the stack of group and operation names the request descended through.
	OperationNames = NewVar("relay.operation_names", Spec[[]string]{HasDefault: true})

	// StartTime is when the request entered the engine.
	StartTime = NewVar("relay.start_time", Spec[time.Time]{
		Factory: func(*Store) (time.Time, error) { return time.Now(), nil },
		Cached:  true,
		Static:  true,
	})
)

// PushOperation appends name to the OperationNames stack.
func PushOperation(s *Store, name string) {
	names := OperationNames.Value(s)
	next := make([]string, len(names), len(names)+1)
	copy(next, names)
	OperationNames.Set(s, append(next, name))
}

// Elapsed returns the time since StartTime.
func Elapsed(s *Store) time.Duration {
	return time.Since(StartTime.Value(s))
}
