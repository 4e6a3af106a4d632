package message

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// FromHTTP translates a net/http request. The body is read fully.
func FromHTTP(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("message: read request body: %w", err)
		}
		body = b
	}

	u := *r.URL
	return &Request{
		Method:     r.Method,
		URL:        &u,
		Header:     r.Header.Clone(),
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		Native:     r,
	}, nil
}

// HTTP builds a net/http request carrying ctx.
func (r *Request) HTTP(ctx context.Context) (*http.Request, error) {
	target := "/"
	if r.URL != nil {
		target = r.URL.String()
	}

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("message: build http request: %w", err)
	}
	req.Header = r.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.RemoteAddr = r.RemoteAddr
	return req, nil
}

// WriteHTTP writes resp to w.
func WriteHTTP(w http.ResponseWriter, resp *Response) error {
	h := w.Header()
	for k, vs := range resp.Header {
		h[k] = append([]string(nil), vs...)
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(resp.Body) == 0 || status == http.StatusNoContent || status == http.StatusNotModified {
		return nil
	}
	if _, err := w.Write(resp.Body); err != nil {
		return fmt.Errorf("message: write response body: %w", err)
	}
	return nil
}

// ResponseFromHTTP translates a net/http response and closes its body.
func ResponseFromHTTP(res *http.Response, req *Request) (*Response, error) {
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("message: read response body: %w", err)
	}

	return &Response{
		Status:  res.StatusCode,
		Header:  res.Header.Clone(),
		Body:    body,
		Request: req,
	}, nil
}
