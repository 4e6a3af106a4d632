package message

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Request is a backend-neutral inbound or outbound request.
type Request struct {
	Method     string
	URL        *url.URL
	Header     http.Header
	Body       []byte
	RemoteAddr string

	// Native holds the backend object this request was translated from, if any.
	Native any
}

// NewRequest builds a request for target, which may be a path with a query or an absolute URL.
func NewRequest(method, target string, body []byte) (*Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("message: invalid target %q: %w", target, err)
	}
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method: strings.ToUpper(method),
		URL:    u,
		Header: make(http.Header),
		Body:   body,
	}, nil
}

// Path returns the URL path, never empty.
func (r *Request) Path() string {
	if r.URL == nil || r.URL.Path == "" {
		return "/"
	}
	return r.URL.Path
}

// Query returns the parsed query string.
func (r *Request) Query() url.Values {
	if r.URL == nil {
		return url.Values{}
	}
	return r.URL.Query()
}

// Cookie returns the named cookie sent with the request.
func (r *Request) Cookie(name string) (*http.Cookie, error) {
	return (&http.Request{Header: r.Header}).Cookie(name)
}

// Cookies returns all cookies sent with the request.
func (r *Request) Cookies() []*http.Cookie {
	return (&http.Request{Header: r.Header}).Cookies()
}

// ContentType returns the media type of the body without parameters.
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.TrimSpace(strings.ToLower(strings.Split(ct, ";")[0]))
	}
	return mediaType
}

// Idempotent reports whether the method is idempotent by definition.
func (r *Request) Idempotent() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace,
		http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Clone returns a deep copy of r. Native is shared.
func (r *Request) Clone() *Request {
	c := *r
	if r.URL != nil {
		u := *r.URL
		if r.URL.User != nil {
			user := *r.URL.User
			u.User = &user
		}
		c.URL = &u
	}
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = bytes.Clone(r.Body)
	}
	return &c
}

// String returns "METHOD /path?query".
func (r *Request) String() string {
	if r.URL == nil {
		return r.Method + " /"
	}
	return r.Method + " " + r.URL.RequestURI()
}
