package plugins_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/message"
)

func newReq(t *testing.T, method, target string, headers ...string) *message.Request {
	t.Helper()
	req, err := message.NewRequest(method, target, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return req
}

func ok(body string) func(context.Context, *message.Request) (any, error) {
	return func(context.Context, *message.Request) (any, error) {
		return message.Text(http.StatusOK, body), nil
	}
}
