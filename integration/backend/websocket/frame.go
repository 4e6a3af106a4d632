package websocket

import (
	"net/http"

	"github.com/dmitrymomot/relay/core/message"
)

// Frame is the JSON envelope of one request or response.
type Frame struct {
	ID     string            `json:"id,omitempty"`
	Method string            `json:"method,omitempty"`
	Path   string            `json:"path,omitempty"`
	Status int               `json:"status,omitempty"`
	Header map[string]string `json:"header,omitempty"`
	Body   string            `json:"body,omitempty"`
}

// Request translates a request frame.
func (f Frame) Request() (*message.Request, error) {
	path := f.Path
	if path == "" {
		path = "/"
	}
	req, err := message.NewRequest(f.Method, path, []byte(f.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range f.Header {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Response translates a response frame.
func (f Frame) Response() *message.Response {
	status := f.Status
	if status <= 0 {
		status = http.StatusOK
	}
	resp := message.NewResponse(status, []byte(f.Body))
	for k, v := range f.Header {
		resp.Header.Set(k, v)
	}
	return resp
}

// RequestFrame translates req into a frame with the given id.
func RequestFrame(id string, req *message.Request) Frame {
	target := req.Path()
	if req.URL != nil && req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	return Frame{
		ID:     id,
		Method: req.Method,
		Path:   target,
		Header: flatten(req.Header),
		Body:   string(req.Body),
	}
}

// ResponseFrame translates resp into a reply to the frame with the given id.
func ResponseFrame(id string, resp *message.Response) Frame {
	return Frame{
		ID:     id,
		Status: resp.Status,
		Header: flatten(resp.Header),
		Body:   string(resp.Body),
	}
}

func flatten(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
