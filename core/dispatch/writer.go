package dispatch

import (
	"bytes"
	"net/http"

	"github.com/dmitrymomot/relay/core/message"
)

// responseRecorder buffers what a net/http handler writes so it can be
// returned as a *message.Response.
type responseRecorder struct {
	header  http.Header
	body    bytes.Buffer
	status  int
	written bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header)}
}

func (w *responseRecorder) Header() http.Header {
	return w.header
}

func (w *responseRecorder) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(b)
}

// Flush is a no-op; the body is delivered once the handler returns.
func (w *responseRecorder) Flush() {}

func (w *responseRecorder) response(req *message.Request) *message.Response {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	resp := message.NewResponse(status, w.body.Bytes())
	resp.Header = w.header.Clone()
	resp.Request = req
	return resp
}
