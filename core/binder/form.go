package binder

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dmitrymomot/relay/core/message"
)

// DefaultMaxMemory caps the multipart bytes kept in memory; the rest spills to disk.
const DefaultMaxMemory = 10 << 20

const maxBoundaryLen = 100

var (
	fileHeaderType  = reflect.TypeFor[*multipart.FileHeader]()
	fileHeadersType = reflect.TypeFor[[]*multipart.FileHeader]()
)

// Form binds application/x-www-form-urlencoded and multipart/form-data bodies.
//
// Values bind through `form:"name"` tags and uploads through `file:"name"`
// tags; untagged fields are ignored. File fields must be
// *multipart.FileHeader or []*multipart.FileHeader, and uploaded names are
// reduced to their base name. Temporary files created for large uploads stay
// on disk until the caller removes them.
//
//	type UploadRequest struct {
//		Title   string                  `form:"title"`
//		Tags    []string                `form:"tags"`
//		Avatar  *multipart.FileHeader   `file:"avatar"`
//		Gallery []*multipart.FileHeader `file:"gallery"`
//	}
func Form() Binder {
	return func(_ context.Context, req *message.Request, v any) error {
		values, files, err := parseForm(req)
		if err != nil {
			return err
		}
		if err := bindFields(v, "form", false, lookupIn(values), ErrFailedToParseForm); err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		return bindFiles(v, files)
	}
}

func parseForm(req *message.Request) (url.Values, map[string][]*multipart.FileHeader, error) {
	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		return nil, nil, fmt.Errorf("%w: expected application/x-www-form-urlencoded or multipart/form-data", ErrMissingContentType)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
		}
		return values, nil, nil

	case "multipart/form-data":
		boundary := params["boundary"]
		if !validBoundary(boundary) {
			return nil, nil, fmt.Errorf("%w: invalid multipart boundary", ErrFailedToParseForm)
		}
		form, err := multipart.NewReader(bytes.NewReader(req.Body), boundary).ReadForm(DefaultMaxMemory)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
		}
		return form.Value, form.File, nil
	}

	return nil, nil, fmt.Errorf("%w: %s is not a form media type", ErrUnsupportedMediaType, mediaType)
}

func validBoundary(b string) bool {
	return b != "" && len(b) <= maxBoundaryLen && !strings.ContainsAny(b, "\x00\r\n")
}

func lookupIn(values map[string][]string) func(string) []string {
	return func(name string) []string { return values[name] }
}

func bindFiles(v any, files map[string][]*multipart.FileHeader) error {
	rv, err := structOf(v, ErrFailedToParseForm)
	if err != nil {
		return err
	}
	for _, f := range fieldsOf(rv.Type(), "file", false) {
		headers := files[f.name]
		if len(headers) == 0 {
			continue
		}
		for _, fh := range headers {
			fh.Filename = baseFilename(fh.Filename)
		}

		dst := rv.FieldByIndex(f.index)
		switch f.typ {
		case fileHeaderType:
			dst.Set(reflect.ValueOf(headers[0]))
		case fileHeadersType:
			dst.Set(reflect.ValueOf(headers))
		default:
			return fmt.Errorf("%w: field %s: file fields must be *multipart.FileHeader or []*multipart.FileHeader, got %s",
				ErrFailedToParseForm, f.goName, f.typ)
		}
	}
	return nil
}

// baseFilename keeps only the last path element of an uploaded file name.
func baseFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	switch name {
	case "", ".", "..", "/":
		return "unnamed"
	}
	return name
}
