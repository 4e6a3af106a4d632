package route

import (
	"fmt"
	"slices"
)

// Table is the ordered route list of one group.
type Table struct {
	routes []*Route
	keys   map[string]*Route
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{keys: make(map[string]*Route)}
}

// Add appends r. Two routes with the same method and equivalent templates conflict.
func (t *Table) Add(r *Route) error {
	if t.keys == nil {
		t.keys = make(map[string]*Route)
	}
	key := r.Key()
	if existing, ok := t.keys[key]; ok {
		return fmt.Errorf("%w: %s duplicates %s", ErrConflict, r, existing)
	}
	t.keys[key] = r
	t.routes = append(t.routes, r)

	slices.SortStableFunc(t.routes, func(a, b *Route) int {
		return b.Priority - a.Priority
	})
	return nil
}

// Routes returns the routes in resolution order.
func (t *Table) Routes() []*Route {
	return t.routes
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}
