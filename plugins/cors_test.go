package plugins_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/plugins"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("api")
	g.Use(plugins.NewCORS(plugins.CORSConfig{
		AllowOrigins:     []string{"https://app.example.com"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut},
		ExposeHeaders:    []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           600,
	}))
	g.Get("items", ok("list"))
	g.Post("items", ok("created"))
	g.Delete("items", ok("deleted"))

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		resp := g.Serve(context.Background(), newReq(t, http.MethodOptions, "/items",
			"Origin", "https://app.example.com",
			"Access-Control-Request-Method", http.MethodPost,
			"Access-Control-Request-Headers", "Content-Type",
		))
		assert.Equal(t, http.StatusNoContent, resp.Status)
		assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET,POST", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Content-Type")
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
	})

	t.Run("preflight for a method the policy excludes", func(t *testing.T) {
		t.Parallel()

		resp := g.Serve(context.Background(), newReq(t, http.MethodOptions, "/items",
			"Origin", "https://app.example.com",
			"Access-Control-Request-Method", http.MethodDelete,
		))
		assert.Equal(t, http.StatusForbidden, resp.Status)
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		t.Parallel()

		resp := g.Serve(context.Background(), newReq(t, http.MethodOptions, "/items",
			"Origin", "https://evil.example.org",
			"Access-Control-Request-Method", http.MethodGet,
		))
		assert.Equal(t, http.StatusForbidden, resp.Status)
	})

	t.Run("plain options stays method not allowed", func(t *testing.T) {
		t.Parallel()

		resp := g.Serve(context.Background(), newReq(t, http.MethodOptions, "/items"))
		assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
	})

	t.Run("actual request", func(t *testing.T) {
		t.Parallel()

		resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/items", "Origin", "https://app.example.com"))
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "X-Total-Count", resp.Header.Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "Origin", resp.Header.Get("Vary"))
	})

	t.Run("actual request from unknown origin", func(t *testing.T) {
		t.Parallel()

		resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/items", "Origin", "https://evil.example.org"))
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_WildcardNeverSendsCredentials(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("api")
	g.Use(plugins.NewCORS(plugins.CORSConfig{AllowCredentials: true}))
	g.Get("items", ok("list"))

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/items", "Origin", "https://any.example.com"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestAllowOriginSubdomain(t *testing.T) {
	t.Parallel()

	allow := plugins.AllowOriginSubdomain("*.example.com")

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://example.com", true},
		{"https://api.example.com", true},
		{"http://api.example.com:3000", true},
		{"https://example.com.evil.org", false},
		{"https://notexample.com", false},
		{"", false},
		{"::bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			t.Parallel()

			_, got := allow(tt.origin)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowOriginWildcard(t *testing.T) {
	t.Parallel()

	allow := plugins.AllowOriginWildcard()
	origin, ok := allow("https://x.dev")
	assert.True(t, ok)
	assert.Equal(t, "https://x.dev", origin)

	_, ok = allow("")
	assert.False(t, ok)
}
