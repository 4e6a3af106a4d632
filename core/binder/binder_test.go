package binder_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/binder"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/reqctx"
)

type articleRequest struct {
	ID     int      `path:"id"`
	Page   *int     `path:"page"`
	Expand bool     `query:"expand"`
	Tags   []string `query:"tags"`
	Locale string   `header:"Accept-Language"`
	Title  string   `json:"title" query:"-" path:"-"`
}

func newRequest(t *testing.T, method, target string, body []byte, contentType string) *message.Request {
	t.Helper()
	req, err := message.NewRequest(method, target, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func contextWithParams(params map[string]string) context.Context {
	ctx, s := reqctx.Ensure(context.Background())
	reqctx.PathParams.Set(s, params)
	return ctx
}

func TestBind_Default(t *testing.T) {
	t.Parallel()

	ctx := contextWithParams(map[string]string{"id": "42", "page": "3"})
	req := newRequest(t, "POST", "/articles/42/comments/3?expand=yes&tags=go,web", []byte(`{"title":"Hello\r\nWorld"}`), "application/json")
	req.Header.Set("Accept-Language", "en")

	var in articleRequest
	require.NoError(t, binder.Bind(ctx, req, &in))

	assert.Equal(t, 42, in.ID)
	require.NotNil(t, in.Page)
	assert.Equal(t, 3, *in.Page)
	assert.True(t, in.Expand)
	assert.Equal(t, []string{"go", "web"}, in.Tags)
	assert.Equal(t, "en", in.Locale)
	assert.Equal(t, "HelloWorld", in.Title)
}

func TestBind_OptionalPathParamMissing(t *testing.T) {
	t.Parallel()

	ctx := contextWithParams(map[string]string{"id": "7"})
	req := newRequest(t, "GET", "/articles/7", nil, "")

	var in articleRequest
	require.NoError(t, binder.Bind(ctx, req, &in))
	assert.Equal(t, 7, in.ID)
	assert.Nil(t, in.Page)
}

func TestBind_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params map[string]string
		req    func(t *testing.T) *message.Request
		source string
	}{
		{
			name:   "bad path value",
			params: map[string]string{"id": "abc"},
			req:    func(t *testing.T) *message.Request { return newRequest(t, "GET", "/", nil, "") },
			source: "path",
		},
		{
			name: "bad query value",
			req:  func(t *testing.T) *message.Request { return newRequest(t, "GET", "/?expand=maybe", nil, "") },
			source: "query",
		},
		{
			name: "unknown json field",
			req: func(t *testing.T) *message.Request {
				return newRequest(t, "POST", "/", []byte(`{"nope":1}`), "application/json")
			},
			source: "body",
		},
		{
			name: "unsupported media type",
			req: func(t *testing.T) *message.Request {
				return newRequest(t, "POST", "/", []byte(`x`), "text/plain")
			},
			source: "body",
		},
		{
			name:   "missing content type",
			req:    func(t *testing.T) *message.Request { return newRequest(t, "POST", "/", []byte(`{}`), "") },
			source: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var in articleRequest
			err := binder.Bind(contextWithParams(tt.params), tt.req(t), &in)
			require.Error(t, err)
			assert.ErrorIs(t, err, message.ErrValidation)

			var ve *message.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.source, ve.Source)
			assert.Equal(t, 400, message.StatusOf(err))
		})
	}
}

func TestJSON_TrailingData(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}
	req := newRequest(t, "POST", "/", []byte(`{"name":"a"}{"name":"b"}`), "application/json")

	var p payload
	err := binder.JSON()(context.Background(), req, &p)
	assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
}

func TestForm(t *testing.T) {
	t.Parallel()

	type upload struct {
		Title  string                `form:"title"`
		Tags   []string              `form:"tags"`
		Avatar *multipart.FileHeader `file:"avatar"`
	}

	t.Run("urlencoded", func(t *testing.T) {
		t.Parallel()

		req := newRequest(t, "POST", "/", []byte("title=Hi&tags=a&tags=b"), "application/x-www-form-urlencoded")
		var in upload
		require.NoError(t, binder.Form()(context.Background(), req, &in))
		assert.Equal(t, "Hi", in.Title)
		assert.Equal(t, []string{"a", "b"}, in.Tags)
	})

	t.Run("multipart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "Doc"))
		fw, err := mw.CreateFormFile("avatar", "../../etc/passwd")
		require.NoError(t, err)
		_, err = fw.Write([]byte("data"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := newRequest(t, "POST", "/", buf.Bytes(), mw.FormDataContentType())
		var in upload
		require.NoError(t, binder.Form()(context.Background(), req, &in))
		assert.Equal(t, "Doc", in.Title)
		require.NotNil(t, in.Avatar)
		assert.Equal(t, "passwd", in.Avatar.Filename)
	})
}

func TestPathFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"id", "page"}, binder.PathFields(&articleRequest{}))
	assert.Equal(t, []string{"id", "page"}, binder.PathFields(articleRequest{}))
	assert.Nil(t, binder.PathFields(42))
}
