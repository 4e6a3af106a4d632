package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/relay/core/message"
)

// Backend performs one outbound exchange.
type Backend interface {
	Do(ctx context.Context, req *message.Request) (*message.Response, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req *message.Request) (*message.Response, error)

func (f BackendFunc) Do(ctx context.Context, req *message.Request) (*message.Response, error) {
	return f(ctx, req)
}

// HTTPBackend sends requests with net/http relative to a base URL.
type HTTPBackend struct {
	base   *url.URL
	client *http.Client
}

// HTTPOption configures an HTTPBackend.
type HTTPOption func(*HTTPBackend)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(b *HTTPBackend) {
		if c != nil {
			b.client = c
		}
	}
}

// WithTimeout sets the per-exchange timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(b *HTTPBackend) {
		b.client.Timeout = d
	}
}

// NewHTTPBackend creates a backend sending requests to baseURL.
func NewHTTPBackend(baseURL string, opts ...HTTPOption) (*HTTPBackend, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}

	b := &HTTPBackend{
		base:   u,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Do resolves the request path under the base URL and performs the exchange.
// Non-2xx answers are responses, not errors.
func (b *HTTPBackend) Do(ctx context.Context, req *message.Request) (*message.Response, error) {
	out := req.Clone()
	target := b.base.JoinPath()
	if req.URL != nil {
		target = b.base.JoinPath(strings.TrimPrefix(req.URL.EscapedPath(), "/"))
		target.RawQuery = req.URL.RawQuery
	}
	out.URL = target

	hr, err := out.HTTP(ctx)
	if err != nil {
		return nil, err
	}
	res, err := b.client.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, target.Redacted(), err)
	}
	return message.ResponseFromHTTP(res, req)
}
