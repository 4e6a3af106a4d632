package message

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/relay/pkg/jsoncodec"
)

// Response is a backend-neutral response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	// Result is the handler value the body was produced from, when known.
	Result any
	// Request is the request that produced this response.
	Request *Request
}

// NewResponse creates a response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: make(http.Header), Body: body}
}

// Text creates a text/plain response.
func Text(status int, s string) *Response {
	resp := NewResponse(status, []byte(s))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Result = s
	return resp
}

// JSON encodes v into a JSON response.
func JSON(status int, v any) (*Response, error) {
	body, err := jsoncodec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("message: encode result: %w", err)
	}
	resp := NewResponse(status, body)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp.Result = v
	return resp, nil
}

// NoContent creates an empty 204 response.
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// Redirect creates a redirect response to location.
func Redirect(status int, location string) *Response {
	resp := NewResponse(status, nil)
	resp.Header.Set("Location", location)
	return resp
}

// FromResult converts a handler result into a response for req.
func FromResult(req *Request, v any) (*Response, error) {
	var (
		resp *Response
		err  error
	)

	switch val := v.(type) {
	case *Response:
		resp = val
	case nil:
		resp = NoContent()
	case []byte:
		resp = NewResponse(http.StatusOK, val)
		resp.Header.Set("Content-Type", "application/octet-stream")
		resp.Result = val
	case string:
		resp = Text(http.StatusOK, val)
	default:
		resp, err = JSON(http.StatusOK, val)
		if err != nil {
			return nil, err
		}
	}

	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp, nil
}

// OK reports whether the status is below 400.
func (r *Response) OK() bool {
	return r.Status > 0 && r.Status < http.StatusBadRequest
}

// SetCookie adds a Set-Cookie header.
func (r *Response) SetCookie(c *http.Cookie) {
	if v := c.String(); v != "" {
		r.Header.Add("Set-Cookie", v)
	}
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("message: empty response body")
	}
	return jsoncodec.Unmarshal(r.Body, v)
}

// Clone returns a deep copy of r. Result and Request are shared.
func (r *Response) Clone() *Response {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = bytes.Clone(r.Body)
	}
	return &c
}
