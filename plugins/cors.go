package plugins

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// CORSConfig defines Cross-Origin Resource Sharing policy.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Empty or "*" allows all.
	AllowOrigins []string

	// AllowMethods restricts preflight answers. Empty allows every method
	// the resolved path accepts.
	AllowMethods []string

	// AllowHeaders defaults to common headers including Authorization and Content-Type.
	AllowHeaders []string

	ExposeHeaders []string

	// AllowCredentials is never sent together with a wildcard origin.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int

	// AllowOriginFunc takes precedence over AllowOrigins. It returns the
	// origin value to echo and whether the origin is allowed.
	AllowOriginFunc func(origin string) (string, bool)
}

// CORS answers preflight requests and decorates responses with CORS headers.
//
// Preflights need no OPTIONS operations: the resolver rejects them with a
// method-not-allowed error carrying the methods the path accepts, and CORS
// turns that error into the 204 preflight answer.
type CORS struct {
	cfg          CORSConfig
	origins      map[string]bool
	allowHeaders string
	expose       string
}

// NewCORS creates a CORS plugin. The zero config allows all origins.
func NewCORS(cfg CORSConfig) *CORS {
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept",
			"Accept-Language",
			"Content-Language",
			"Content-Type",
			"Origin",
			"Authorization",
			"X-Request-ID",
		}
	}
	origins := make(map[string]bool, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		origins[o] = true
	}
	return &CORS{
		cfg:          cfg,
		origins:      origins,
		allowHeaders: strings.Join(cfg.AllowHeaders, ","),
		expose:       strings.Join(cfg.ExposeHeaders, ","),
	}
}

func (c *CORS) allowOrigin(origin string) (string, bool) {
	switch {
	case c.cfg.AllowOriginFunc != nil:
		return c.cfg.AllowOriginFunc(origin)
	case len(c.origins) == 0 || c.origins["*"]:
		return "*", true
	case c.origins[origin]:
		return origin, true
	}
	return "", false
}

func (c *CORS) credentials(h http.Header, origin string) {
	if c.cfg.AllowCredentials && origin != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// ProcessResponse adds the CORS headers for allowed origins.
func (c *CORS) ProcessResponse(_ context.Context, resp *message.Response) (plugin.Result, error) {
	if resp.Request == nil {
		return plugin.Unchanged(), nil
	}
	origin := resp.Request.Header.Get("Origin")
	if origin == "" {
		return plugin.Unchanged(), nil
	}
	allowed, ok := c.allowOrigin(origin)
	if !ok {
		return plugin.Unchanged(), nil
	}

	resp.Header.Set("Access-Control-Allow-Origin", allowed)
	c.credentials(resp.Header, allowed)
	if c.expose != "" {
		resp.Header.Set("Access-Control-Expose-Headers", c.expose)
	}
	resp.Header.Add("Vary", "Origin")
	return plugin.Unchanged(), nil
}

// HandleError answers preflight requests rejected by method resolution.
func (c *CORS) HandleError(ctx context.Context, e *message.Error) (plugin.Result, error) {
	req := e.Request
	if req == nil || req.Method != http.MethodOptions {
		return plugin.Unchanged(), nil
	}
	requested := req.Header.Get("Access-Control-Request-Method")
	if requested == "" || !errors.Is(e, message.ErrMethodNotAllowed) {
		return plugin.Unchanged(), nil
	}

	methods := reqctx.AllowMethods.Value(reqctx.FromContext(ctx))
	var mna *message.MethodNotAllowedError
	if errors.As(e, &mna) && len(mna.Allowed) > 0 {
		methods = mna.Allowed
	}
	if len(c.cfg.AllowMethods) > 0 {
		methods = slices.DeleteFunc(slices.Clone(methods), func(m string) bool {
			return !slices.Contains(c.cfg.AllowMethods, m)
		})
	}

	origin, ok := c.allowOrigin(req.Header.Get("Origin"))
	if !ok || !slices.Contains(methods, requested) {
		return plugin.Replace(message.NewResponse(http.StatusForbidden, nil)), nil
	}

	resp := message.NoContent()
	h := resp.Header
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
	if req.Header.Get("Access-Control-Request-Headers") != "" {
		h.Set("Access-Control-Allow-Headers", c.allowHeaders)
	}
	c.credentials(h, origin)
	if c.cfg.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(c.cfg.MaxAge))
	}
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
	resp.Request = req
	return plugin.Replace(resp), nil
}

// AllowOriginWildcard allows any non-empty origin and echoes it back, which
// keeps credentials usable.
func AllowOriginWildcard() func(origin string) (string, bool) {
	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		return origin, true
	}
}

// AllowOriginSubdomain allows domain and all of its subdomains, with or without a port.
func AllowOriginSubdomain(domain string) func(origin string) (string, bool) {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(domain, "*."), "."))
	suffix := "." + domain

	return func(origin string) (string, bool) {
		u, err := url.Parse(origin)
		if origin == "" || err != nil || u.Host == "" {
			return "", false
		}
		host := strings.ToLower(u.Hostname())
		if host == domain || strings.HasSuffix(host, suffix) {
			return origin, true
		}
		return "", false
	}
}
