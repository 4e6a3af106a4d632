package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/config"
	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/hook"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
	"github.com/dmitrymomot/relay/pkg/async"
)

func newReq(t *testing.T, method, target string) *message.Request {
	t.Helper()
	req, err := message.NewRequest(method, target, nil)
	require.NoError(t, err)
	return req
}

func text(s string) dispatch.HandlerFunc {
	return func(context.Context, *message.Request) (any, error) { return s, nil }
}

func TestServe_Resolution(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	g.Get("hello/{name}", func(ctx context.Context, req *message.Request) (any, error) {
		params := reqctx.PathParams.Value(reqctx.FromContext(ctx))
		return "hi " + params["name"], nil
	})
	g.Post("hello/{name}", text("posted"))

	tests := []struct {
		name   string
		method string
		target string
		status int
		body   string
		allow  string
	}{
		{"get", http.MethodGet, "/hello/bob", http.StatusOK, "hi bob", ""},
		{"post", http.MethodPost, "/hello/bob", http.StatusOK, "posted", ""},
		{"not found", http.MethodGet, "/nope", http.StatusNotFound, "", ""},
		{"method not allowed", http.MethodDelete, "/hello/bob", http.StatusMethodNotAllowed, "", "GET, POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := g.Serve(context.Background(), newReq(t, tt.method, tt.target))
			assert.Equal(t, tt.status, resp.Status)
			if tt.body != "" {
				assert.Equal(t, tt.body, string(resp.Body))
			}
			assert.Equal(t, tt.allow, resp.Header.Get("Allow"))
		})
	}
}

type itemParams struct {
	ID      int  `path:"id"`
	Verbose bool `query:"verbose"`
}

func TestServe_Bind(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	g.Get("items/{id:int}", dispatch.Bind(func(ctx context.Context, p itemParams) (any, error) {
		return p, nil
	}), dispatch.Params[itemParams]())

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/items/7?verbose=true"))
	require.Equal(t, http.StatusOK, resp.Status)

	var got itemParams
	require.NoError(t, resp.Decode(&got))
	assert.Equal(t, itemParams{ID: 7, Verbose: true}, got)

	resp = g.Serve(context.Background(), newReq(t, http.MethodGet, "/items/7?verbose=maybe"))
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = g.Serve(context.Background(), newReq(t, http.MethodGet, "/items/seven"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestParams_RejectsUnknownPlaceholder(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	assert.Panics(t, func() {
		g.Get("items/{slug}", text("x"), dispatch.Params[itemParams]())
	})
}

func TestServe_HookOrderAcrossMount(t *testing.T) {
	t.Parallel()

	var trace []string
	record := func(s string) { trace = append(trace, s) }

	inner := dispatch.NewGroup("inner")
	inner.Get("x", func(ctx context.Context, req *message.Request) (any, error) {
		record("handler")
		assert.Equal(t, []string{"inner", "x"}, reqctx.OperationNames.Value(reqctx.FromContext(ctx)))
		return "ok", nil
	}, dispatch.Named("x"))
	inner.Before(hook.Targets("x"), func(context.Context, *message.Request) error {
		record("near-before")
		return nil
	})
	inner.After(hook.Targets("x"), func(context.Context, *message.Response) (any, error) {
		record("near-after")
		return nil, nil
	})

	root := dispatch.NewGroup("root")
	root.Mount("in", inner)
	root.Before(hook.Targets("inner"), func(context.Context, *message.Request) error {
		record("far-before")
		return nil
	})
	root.After(hook.Targets("inner"), func(context.Context, *message.Response) (any, error) {
		record("far-after")
		return nil, nil
	})

	resp := root.Serve(context.Background(), newReq(t, http.MethodGet, "/in/x"))
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"far-before", "near-before", "handler", "near-after", "far-after"}, trace)
}

func TestServe_HookPriority(t *testing.T) {
	t.Parallel()

	var trace []string
	g := dispatch.NewGroup("root")
	g.Get("x", text("ok"), dispatch.Named("x"))
	g.Before(hook.All(), func(context.Context, *message.Request) error {
		trace = append(trace, "low")
		return nil
	})
	g.Hook(hook.Before(hook.Targets("x"), func(context.Context, *message.Request) error {
		trace = append(trace, "high")
		return nil
	}).WithPriority(10))

	g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
	assert.Equal(t, []string{"high", "low"}, trace)
}

func TestServe_WildcardExclusionAcrossMounts(t *testing.T) {
	t.Parallel()

	var calls int
	root := dispatch.NewGroup("root")
	root.Before(hook.All("secret"), func(context.Context, *message.Request) error {
		calls++
		return nil
	})

	deep := dispatch.NewGroup("deep")
	deep.Get("secret", text("deep secret"), dispatch.Named("secret"))
	deep.Get("open", text("deep open"))

	sub := dispatch.NewGroup("sub")
	sub.Get("secret", text("secret"), dispatch.Named("secret"))
	sub.Get("open", text("open"))
	sub.Mount("deep", deep)
	root.Mount("sub", sub)

	tests := []struct {
		path string
		ran  bool
	}{
		{"/sub/secret", false},
		{"/sub/open", true},
		{"/sub/deep/secret", false},
		{"/sub/deep/open", true},
	}
	for _, tt := range tests {
		calls = 0
		resp := root.Serve(context.Background(), newReq(t, http.MethodGet, tt.path))
		require.Equal(t, http.StatusOK, resp.Status, tt.path)
		assert.Equal(t, tt.ran, calls > 0, tt.path)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }

func TestServe_ErrorHookPrefersExactType(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	g.Get("x", func(context.Context, *message.Request) (any, error) {
		return nil, codedErr{}
	})
	g.OnError(hook.All(), func(context.Context, *message.Error) (any, error) {
		return "generic", nil
	}, hook.Type[error]())
	g.OnError(hook.All(), func(context.Context, *message.Error) (any, error) {
		return "specific", nil
	}, hook.Type[codedErr]())

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
	assert.Equal(t, "specific", string(resp.Body))
}

var errNotReady = errors.New("not ready")

func TestServe_ErrorHooks(t *testing.T) {
	t.Parallel()

	inner := dispatch.NewGroup("inner")
	inner.Get("wrapped", func(context.Context, *message.Request) (any, error) {
		return nil, fmt.Errorf("wrap: %w", errNotReady)
	})
	inner.Get("plain", func(context.Context, *message.Request) (any, error) {
		return nil, errors.New("boom")
	})
	inner.OnError(hook.All(), func(context.Context, *message.Error) (any, error) {
		return message.Text(http.StatusTeapot, "near-any"), nil
	})

	root := dispatch.NewGroup("root")
	root.Mount("in", inner)
	root.OnError(hook.Targets("inner"), func(context.Context, *message.Error) (any, error) {
		return message.Text(http.StatusServiceUnavailable, "far-is"), nil
	}, hook.Is(errNotReady))
	root.OnError(hook.Targets("inner"), func(context.Context, *message.Error) (any, error) {
		return message.Text(http.StatusBadGateway, "far-any"), nil
	})

	resp := root.Serve(context.Background(), newReq(t, http.MethodGet, "/in/wrapped"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "far-is", string(resp.Body))

	resp = root.Serve(context.Background(), newReq(t, http.MethodGet, "/in/plain"))
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "near-any", string(resp.Body))
}

func TestServe_ErrorHookPlainResultKeepsStatus(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	g.Get("x", func(context.Context, *message.Request) (any, error) {
		return nil, &message.PermissionDeniedError{}
	})
	g.OnError(hook.All(), func(_ context.Context, e *message.Error) (any, error) {
		return map[string]string{"error": "denied"}, nil
	}, hook.Is(message.ErrPermissionDenied))

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.JSONEq(t, `{"error":"denied"}`, string(resp.Body))
}

func TestServe_RedirectSignal(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	g.Get("private", func(context.Context, *message.Request) (any, error) {
		return nil, &message.RedirectError{Location: "/login"}
	}, dispatch.Named("private"))
	g.Get("typed", func(context.Context, *message.Request) (any, error) {
		return nil, &message.RedirectError{Location: "/login"}
	}, dispatch.Named("typed"))

	g.OnError(hook.All(), func(context.Context, *message.Error) (any, error) {
		return message.Text(http.StatusInternalServerError, "swallowed"), nil
	})
	g.OnError(hook.Targets("typed"), func(_ context.Context, e *message.Error) (any, error) {
		return message.Redirect(http.StatusSeeOther, "/elsewhere"), nil
	}, hook.Type[*message.RedirectError]())

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/private"))
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = g.Serve(context.Background(), newReq(t, http.MethodGet, "/typed"))
	assert.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/elsewhere", resp.Header.Get("Location"))
}

func TestServe_ResolveFallbackHook(t *testing.T) {
	t.Parallel()

	api := dispatch.NewGroup("api")
	api.Get("users", text("users"))
	api.OnError(hook.All(), func(context.Context, *message.Error) (any, error) {
		return message.Text(http.StatusNotFound, "no such api"), nil
	}, hook.Is(message.ErrRouteNotFound))

	root := dispatch.NewGroup("root")
	root.Mount("api", api)

	resp := root.Serve(context.Background(), newReq(t, http.MethodGet, "/api/nothing"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "no such api", string(resp.Body))

	resp = root.Serve(context.Background(), newReq(t, http.MethodGet, "/other"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.NotEqual(t, "no such api", string(resp.Body))
}

type alwaysRedo struct{ count *int }

func (p alwaysRedo) ProcessResponse(_ context.Context, resp *message.Response) (plugin.Result, error) {
	*p.count++
	return plugin.Redo(resp.Request), nil
}

type redoOnce struct{ done *bool }

func (p redoOnce) ProcessResponse(_ context.Context, resp *message.Response) (plugin.Result, error) {
	if *p.done {
		return plugin.Unchanged(), nil
	}
	*p.done = true
	next := resp.Request.Clone()
	next.Header.Set("X-Attempt", "2")
	return plugin.Redo(next), nil
}

func TestServe_RedoLoop(t *testing.T) {
	t.Parallel()

	t.Run("bounded", func(t *testing.T) {
		t.Parallel()

		var (
			redos   int
			indexes []int
		)
		g := dispatch.NewGroup("root", dispatch.WithPreferences(config.Preferences{MaxRetryLoops: 5}))
		g.Use(alwaysRedo{count: &redos})
		g.Get("x", func(ctx context.Context, req *message.Request) (any, error) {
			indexes = append(indexes, reqctx.RetryIndex.Value(reqctx.FromContext(ctx)))
			return "ok", nil
		})

		resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, indexes)
		assert.Equal(t, 5, redos)
	})

	t.Run("terminates", func(t *testing.T) {
		t.Parallel()

		var (
			done    bool
			calls   int
			attempt string
		)
		g := dispatch.NewGroup("root")
		g.Use(redoOnce{done: &done})
		g.Get("x", func(_ context.Context, req *message.Request) (any, error) {
			calls++
			attempt = req.Header.Get("X-Attempt")
			return "ok", nil
		})

		resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "2", attempt)
	})

	t.Run("fatal error handled by hook", func(t *testing.T) {
		t.Parallel()

		var redos int
		g := dispatch.NewGroup("root", dispatch.WithPreferences(config.Preferences{MaxRetryLoops: 2}))
		g.Use(alwaysRedo{count: &redos})
		g.Get("x", text("ok"))
		g.OnError(hook.All(), func(_ context.Context, e *message.Error) (any, error) {
			return e.Request, nil
		}, hook.Is(message.ErrMaxRetriesExceeded))

		resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, 2, redos)
	})
}

func TestServe_RetryTimeBudget(t *testing.T) {
	t.Parallel()

	budgetHook := func(g *dispatch.Group) {
		g.OnError(hook.All(), func(_ context.Context, e *message.Error) (any, error) {
			return map[string]string{"error": "budget"}, nil
		}, hook.Is(message.ErrMaxRetriesTimeout))
	}
	prefs := config.Preferences{MaxRetryLoops: 1000, MaxRetryTime: 20 * time.Millisecond}

	t.Run("blocking", func(t *testing.T) {
		t.Parallel()

		var redos, calls int
		g := dispatch.NewGroup("root", dispatch.WithPreferences(prefs))
		g.Use(alwaysRedo{count: &redos})
		g.Get("x", func(context.Context, *message.Request) (any, error) {
			calls++
			time.Sleep(5 * time.Millisecond)
			return "ok", nil
		})
		budgetHook(g)

		resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/x"))
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.JSONEq(t, `{"error":"budget"}`, string(resp.Body))
		assert.Greater(t, calls, 1)
		assert.Less(t, calls, 1000)
	})

	t.Run("cooperative", func(t *testing.T) {
		t.Parallel()

		var redos, calls int
		g := dispatch.NewGroup("root", dispatch.WithPreferences(prefs))
		g.Use(alwaysRedo{count: &redos})
		g.HandleAsync(http.MethodGet, "x", func(ctx context.Context, _ *message.Request) *async.Future[any] {
			calls++
			return async.Go(ctx, func(context.Context) (any, error) {
				time.Sleep(5 * time.Millisecond)
				return "ok", nil
			})
		})
		budgetHook(g)

		resp, err := g.ServeAsync(context.Background(), newReq(t, http.MethodGet, "/x")).Await()
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.JSONEq(t, `{"error":"budget"}`, string(resp.Body))
		assert.Greater(t, calls, 1)
		assert.Less(t, calls, 1000)
	})
}

type headerStamp struct{}

func (headerStamp) ProcessRequest(_ context.Context, req *message.Request) (plugin.Result, error) {
	next := req.Clone()
	next.Header.Set("X-Stamp", "yes")
	return plugin.Replace(next), nil
}

func (headerStamp) ProcessResponse(_ context.Context, resp *message.Response) (plugin.Result, error) {
	resp.Header.Set("X-Stamped", "yes")
	return plugin.Unchanged(), nil
}

func TestServe_PluginsAndIdempotency(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root")
	g.Use(headerStamp{})
	g.Post("orders", func(ctx context.Context, req *message.Request) (any, error) {
		return map[string]any{
			"stamp":      req.Header.Get("X-Stamp"),
			"idempotent": reqctx.Idempotent.Value(reqctx.FromContext(ctx)),
		}, nil
	}, dispatch.Idempotent(true))

	resp := g.Serve(context.Background(), newReq(t, http.MethodPost, "/orders"))
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "yes", resp.Header.Get("X-Stamped"))
	assert.JSONEq(t, `{"stamp":"yes","idempotent":true}`, string(resp.Body))
}

func TestServe_Panic(t *testing.T) {
	t.Parallel()

	g := dispatch.NewGroup("root", dispatch.WithPreferences(config.Preferences{Production: true}))
	g.Get("boom", func(context.Context, *message.Request) (any, error) {
		panic("kaboom")
	})
	g.Get("caught", func(context.Context, *message.Request) (any, error) {
		panic(errNotReady)
	}, dispatch.Named("caught"))
	g.OnError(hook.Targets("caught"), func(_ context.Context, e *message.Error) (any, error) {
		var pe *dispatch.PanicError
		require.ErrorAs(t, e, &pe)
		assert.ErrorIs(t, e, errNotReady)
		return message.Text(http.StatusServiceUnavailable, "recovered"), nil
	}, hook.Type[*dispatch.PanicError]())

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/boom"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.NotContains(t, string(resp.Body), "stack")

	resp = g.Serve(context.Background(), newReq(t, http.MethodGet, "/caught"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

type modeProbe struct{ used *[]string }

func (p modeProbe) ProcessRequest(context.Context, *message.Request) (plugin.Result, error) {
	*p.used = append(*p.used, "blocking")
	return plugin.Unchanged(), nil
}

func (p modeProbe) ProcessRequestAsync(ctx context.Context, _ *message.Request) *async.Future[plugin.Result] {
	*p.used = append(*p.used, "async")
	return async.Resolved(plugin.Unchanged(), nil)
}

func TestServe_ExecutionModes(t *testing.T) {
	t.Parallel()

	var used []string
	g := dispatch.NewGroup("root")
	g.Use(modeProbe{used: &used})
	g.Get("sync", text("sync"))
	g.HandleAsync(http.MethodGet, "async", func(ctx context.Context, _ *message.Request) *async.Future[any] {
		return async.Go(ctx, func(context.Context) (any, error) { return "async", nil })
	})

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/sync"))
	assert.Equal(t, "sync", string(resp.Body))

	resp, err := g.ServeAsync(context.Background(), newReq(t, http.MethodGet, "/async")).Await()
	require.NoError(t, err)
	assert.Equal(t, "async", string(resp.Body))

	assert.Equal(t, []string{"blocking", "async"}, used)
}

func TestMountHTTP(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App", "legacy")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	g := dispatch.NewGroup("root")
	g.Use(headerStamp{})
	g.MountHTTP("legacy", mux)

	resp := g.Serve(context.Background(), newReq(t, http.MethodGet, "/legacy/status"))
	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "legacy", resp.Header.Get("X-App"))
	assert.Equal(t, "yes", resp.Header.Get("X-Stamped"))
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	api := dispatch.NewGroup("api")
	api.Get("users/{id}", text("user"), dispatch.Named("users.get"))
	api.Delete("users/{id}", text("deleted"))

	root := dispatch.NewGroup("root")
	root.Get("health", text("ok"))
	root.Mount("v1", api)
	root.MountApp("legacy", func(context.Context, *message.Request) (*message.Response, error) {
		return message.NoContent(), nil
	})

	var got []string
	for _, r := range root.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}
	assert.ElementsMatch(t, []string{
		"GET /health",
		"GET /v1/users/{id}",
		"DELETE /v1/users/{id}",
		"* /legacy",
	}, got)
}

func TestRegistrationPanics(t *testing.T) {
	t.Parallel()

	t.Run("conflict", func(t *testing.T) {
		t.Parallel()
		g := dispatch.NewGroup("root")
		g.Get("a/{x}", text("x"))
		assert.Panics(t, func() { g.Get("a/{y}", text("y")) })
	})

	t.Run("invalid method", func(t *testing.T) {
		t.Parallel()
		g := dispatch.NewGroup("root")
		assert.Panics(t, func() { g.Handle("get me", "a", text("x")) })
	})

	t.Run("nil handler", func(t *testing.T) {
		t.Parallel()
		g := dispatch.NewGroup("root")
		assert.Panics(t, func() { g.Get("a", nil) })
	})

	t.Run("after build", func(t *testing.T) {
		t.Parallel()
		g := dispatch.NewGroup("root")
		g.Get("a", text("a"))
		g.Build()
		assert.Panics(t, func() { g.Get("b", text("b")) })
	})

	t.Run("mount twice", func(t *testing.T) {
		t.Parallel()
		sub := dispatch.NewGroup("sub")
		a, b := dispatch.NewGroup("a"), dispatch.NewGroup("b")
		a.Mount("sub", sub)
		assert.Panics(t, func() { b.Mount("sub", sub) })
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		a, b := dispatch.NewGroup("a"), dispatch.NewGroup("b")
		a.Mount("b", b)
		assert.Panics(t, func() { b.Mount("a", a) })
	})
}

func TestBuild_WarnsOnUnmatchedWildcard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	g := dispatch.NewGroup("root", dispatch.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	g.Get("x", text("x"), dispatch.Named("x"))
	g.Before(hook.All("x"), func(context.Context, *message.Request) error { return nil })
	g.Build()

	assert.Contains(t, buf.String(), "wildcard hook matches no route")
}
