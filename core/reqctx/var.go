package reqctx

import (
	"errors"
	"fmt"
)

// ErrNoValue is returned by Var.Get when the slot has no value, default, or factory.
var ErrNoValue = errors.New("reqctx: no value")

// Spec declares how a slot behaves.
type Spec[T any] struct {
	// Default is returned when nothing is stored and no factory is declared.
	Default T
	// HasDefault marks Default as meaningful even when it is the zero value.
	HasDefault bool
	// DefaultFunc produces a fresh default on every read. Takes precedence over Default.
	DefaultFunc func() T
	// Factory computes the value lazily from other slots.
	Factory func(*Store) (T, error)
	// Cached stores the factory result so it runs at most once per request.
	Cached bool
	// Static makes the first write win. Later writes are ignored.
	Static bool
}

// Var is a typed slot of the request store.
type Var[T any] struct {
	key  string
	spec Spec[T]
}

// NewVar declares a slot under key.
func NewVar[T any](key string, spec Spec[T]) *Var[T] {
	if spec.DefaultFunc != nil {
		spec.HasDefault = true
	}
	return &Var[T]{key: key, spec: spec}
}

// Key returns the slot key.
func (v *Var[T]) Key() string { return v.key }

// Get returns the stored value, running the factory or falling back to the default.
func (v *Var[T]) Get(s *Store) (T, error) {
	var zero T
	if s == nil {
		return v.fallback()
	}

	if raw, ok := s.Lookup(v.key); ok {
		val, ok := raw.(T)
		if !ok {
			return zero, fmt.Errorf("reqctx: slot %q holds %T", v.key, raw)
		}
		return val, nil
	}

	if v.spec.Factory != nil {
		val, err := v.spec.Factory(s)
		if err != nil {
			return zero, fmt.Errorf("reqctx: slot %q: %w", v.key, err)
		}
		if v.spec.Cached {
			s.store(v.key, val, v.spec.Static)
		}
		return val, nil
	}

	return v.fallback()
}

func (v *Var[T]) fallback() (T, error) {
	switch {
	case v.spec.DefaultFunc != nil:
		return v.spec.DefaultFunc(), nil
	case v.spec.HasDefault:
		return v.spec.Default, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s", ErrNoValue, v.key)
}

// Value is Get without the error; failures yield the zero value or default.
func (v *Var[T]) Value(s *Store) T {
	val, err := v.Get(s)
	if err != nil {
		val, _ = v.fallback()
	}
	return val
}

// Set stores val. It returns false when the slot is static and already holds a value.
func (v *Var[T]) Set(s *Store, val T) bool {
	if s == nil {
		return false
	}
	return s.store(v.key, val, v.spec.Static)
}

// Contains reports whether a value is stored, without consulting defaults.
func (v *Var[T]) Contains(s *Store) bool {
	return s != nil && s.Has(v.key)
}

// Setup stores the default value when nothing is stored yet.
func (v *Var[T]) Setup(s *Store) {
	if s == nil || s.Has(v.key) {
		return
	}
	if val, err := v.fallback(); err == nil {
		s.store(v.key, val, false)
	}
}

// Delete removes the stored value. Static slots are deletable.
func (v *Var[T]) Delete(s *Store) {
	if s != nil {
		s.delete(v.key)
	}
}
