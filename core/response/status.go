package response

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/dmitrymomot/relay/core/message"
)

type statusEntry struct {
	name   string
	match  func(error) bool
	status int
}

// StatusTable maps unclassified errors to status codes. Errors that carry
// their own status through a StatusCode method bypass the table.
// Registration is not safe for concurrent use; build the table at startup.
type StatusTable struct {
	entries []statusEntry
}

// NewStatusTable returns an empty table.
func NewStatusTable() *StatusTable {
	return &StatusTable{}
}

// Register maps errors accepted by match to status. Earlier entries win.
func (t *StatusTable) Register(name string, match func(error) bool, status int) *StatusTable {
	t.entries = append(t.entries, statusEntry{name: name, match: match, status: status})
	return t
}

// RegisterIs maps errors for which errors.Is(err, target) holds to status.
func (t *StatusTable) RegisterIs(target error, status int) *StatusTable {
	return t.Register(target.Error(), func(err error) bool { return errors.Is(err, target) }, status)
}

// RegisterType maps errors whose chain contains an E to status.
func RegisterType[E error](t *StatusTable, status int) *StatusTable {
	return t.Register(reflect.TypeFor[E]().String(), func(err error) bool {
		var target E
		return errors.As(err, &target)
	}, status)
}

// Lookup returns the status registered for err.
func (t *StatusTable) Lookup(err error) (int, bool) {
	if t == nil || err == nil {
		return 0, false
	}
	for _, e := range t.entries {
		if e.match(err) {
			return e.status, true
		}
	}
	return 0, false
}

// Status resolves the status for err: a StatusCode method in the chain first,
// then the table, then 500.
func (t *StatusTable) Status(err error) int {
	var sc message.StatusCoder
	if errors.As(err, &sc) {
		if status := sc.StatusCode(); status > 0 {
			return status
		}
	}
	if status, ok := t.Lookup(err); ok {
		return status
	}
	return http.StatusInternalServerError
}

// Len returns the number of registered entries.
func (t *StatusTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
