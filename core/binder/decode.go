package binder

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()

// assign decodes raw into dst. Scalars take the first value; slices take
// every value, splitting comma-separated ones.
func assign(dst reflect.Value, raw []string) error {
	if reflect.PointerTo(dst.Type()).Implements(textUnmarshaler) {
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw[0]))
	}

	switch dst.Kind() {
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), raw)
	case reflect.Slice:
		parts := splitValues(raw)
		out := reflect.MakeSlice(dst.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := assign(out.Index(i), []string{p}); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	}
	return decodeScalar(dst, raw[0])
}

func decodeScalar(dst reflect.Value, s string) error {
	bits := 0
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		bits = dst.Type().Bits()
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(cleanString(s))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return fmt.Errorf("invalid int value %q", s)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			return fmt.Errorf("invalid uint value %q", s)
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, bits)
		if err != nil {
			return fmt.Errorf("invalid float value %q", s)
		}
		dst.SetFloat(n)
	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", dst.Type())
	}
	return nil
}

// parseBool accepts strconv forms plus on/off and yes/no. Empty is false.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid bool value %q", s)
	}
	return b, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for p := range strings.SplitSeq(v, ",") {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// cleanString drops NUL, CR, LF and other control characters except tab.
func cleanString(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == utf8.RuneError:
			return -1
		case r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
