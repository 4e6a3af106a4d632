package binder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// field is one bindable struct field under a given tag.
type field struct {
	index  []int
	name   string
	goName string
	typ    reflect.Type
}

type planKey struct {
	typ      reflect.Type
	tag      string
	implicit bool
}

var plans sync.Map // planKey -> []field

// fieldsOf lists the exported fields of struct type t bound under tag.
// With implicit set, untagged fields bind under their lowercase name;
// otherwise only tagged fields take part. Embedded structs are flattened.
func fieldsOf(t reflect.Type, tag string, implicit bool) []field {
	key := planKey{typ: t, tag: tag, implicit: implicit}
	if cached, ok := plans.Load(key); ok {
		return cached.([]field)
	}
	fields := collectFields(t, tag, implicit, nil)
	plans.Store(key, fields)
	return fields
}

func collectFields(t reflect.Type, tag string, implicit bool, prefix []int) []field {
	var out []field
	for i := range t.NumField() {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		raw, tagged := sf.Tag.Lookup(tag)
		if sf.Anonymous && !tagged && sf.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(sf.Type, tag, implicit, index)...)
			continue
		}
		if !sf.IsExported() || raw == "-" {
			continue
		}

		name, _, _ := strings.Cut(raw, ",")
		switch {
		case name != "":
		case implicit && !tagged:
			name = strings.ToLower(sf.Name)
		default:
			continue
		}
		out = append(out, field{index: index, name: name, goName: sf.Name, typ: sf.Type})
	}
	return out
}

// structOf returns the struct v points to.
func structOf(v any, bindErr error) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: target must be a non-nil pointer", bindErr)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: target must be a pointer to struct", bindErr)
	}
	return rv, nil
}

// bindFields assigns lookup(name) to every field bound under tag. Fields
// without values keep their current value.
func bindFields(v any, tag string, implicit bool, lookup func(name string) []string, bindErr error) error {
	rv, err := structOf(v, bindErr)
	if err != nil {
		return err
	}
	for _, f := range fieldsOf(rv.Type(), tag, implicit) {
		values := lookup(f.name)
		if len(values) == 0 {
			continue
		}
		if err := assign(rv.FieldByIndex(f.index), values); err != nil {
			return fmt.Errorf("%w: field %s: %v", bindErr, f.goName, err)
		}
	}
	return nil
}
