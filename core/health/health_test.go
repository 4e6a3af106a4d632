package health_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/health"
	"github.com/dmitrymomot/relay/core/message"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := func(context.Context) error { return errors.New("db down") }
	passing := func(context.Context) error { return nil }

	tests := []struct {
		name       string
		checks     []func(context.Context) error
		path       string
		wantStatus int
		wantBody   string
	}{
		{"liveness", nil, "/health/live", http.StatusOK, "ALIVE"},
		{"ping", nil, "/ping", http.StatusNoContent, ""},
		{"ready", []func(context.Context) error{passing, passing}, "/health/ready", http.StatusOK, "READY"},
		{"not ready", []func(context.Context) error{passing, failing}, "/health/ready", http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := dispatch.NewGroup("")
			health.Register(g, log, tt.checks...)

			req, err := message.NewRequest(http.MethodGet, tt.path, nil)
			require.NoError(t, err)
			resp := g.Serve(context.Background(), req)

			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(resp.Body))
			}
		})
	}
}
