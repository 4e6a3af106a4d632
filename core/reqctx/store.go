package reqctx

import "context"

type storeContextKey struct{}

// Store holds the slot values of one request. The stages of a dispatch
// never run concurrently, so a Store is not synchronized; code that shares
// one across goroutines must order the accesses itself.
type Store struct {
	values map[string]any
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// Lookup returns the raw value stored under key.
func (s *Store) Lookup(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether a value is stored under key.
func (s *Store) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Keys returns the stored keys in no particular order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	return len(s.values)
}

// Fork returns a new store holding a shallow copy of s's values. Writes to
// either store are not seen by the other.
func (s *Store) Fork() *Store {
	f := &Store{values: make(map[string]any, len(s.values))}
	for k, v := range s.values {
		f.values[k] = v
	}
	return f
}

func (s *Store) store(key string, v any, static bool) bool {
	if static {
		if _, exists := s.values[key]; exists {
			return false
		}
	}
	s.values[key] = v
	return true
}

func (s *Store) delete(key string) {
	delete(s.values, key)
}

// WithStore returns a copy of ctx carrying s.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext returns the store carried by ctx, or nil.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(storeContextKey{}).(*Store)
	return s
}

// Ensure returns ctx and the store it carries, attaching a fresh store when ctx has none.
func Ensure(ctx context.Context) (context.Context, *Store) {
	if s := FromContext(ctx); s != nil {
		return ctx, s
	}
	s := New()
	return WithStore(ctx, s), s
}
