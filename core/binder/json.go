package binder

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/pkg/jsoncodec"
)

// DefaultMaxJSONSize bounds JSON request bodies.
const DefaultMaxJSONSize = 1 << 20

// JSON decodes application/json (and +json) bodies strictly: unknown fields
// and trailing data fail, and control characters are stripped from strings.
func JSON() Binder {
	return func(ctx context.Context, req *message.Request, v any) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		mediaType := req.ContentType()
		if mediaType == "" {
			return fmt.Errorf("%w: missing content-type header, expected application/json", ErrMissingContentType)
		}
		if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, mediaType)
		}

		if len(req.Body) == 0 {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		if len(req.Body) > DefaultMaxJSONSize {
			return fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseJSON, DefaultMaxJSONSize)
		}

		if err := jsoncodec.UnmarshalStrict(req.Body, v); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		cleanStrings(reflect.ValueOf(v))
		return nil
	}
}

// cleanStrings walks v and strips control characters from every settable
// string it reaches.
func cleanStrings(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(cleanString(rv.String()))
		}
	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			cleanStrings(rv.Elem())
		}
	case reflect.Struct:
		for i := range rv.NumField() {
			cleanStrings(rv.Field(i))
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			cleanStrings(rv.Index(i))
		}
	}
}
