package route_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/route"
)

func TestCompile_Alternatives(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		opts     []route.CompileOption
		want     []string
	}{
		{
			name:     "static",
			template: "/users/",
			want:     []string{`^users$`},
		},
		{
			name:     "root",
			template: "",
			want:     []string{`^$`},
		},
		{
			name:     "required only",
			template: "users/{id}",
			want:     []string{`^users/(?P<id>[^/]+)$`},
		},
		{
			name:     "one optional tail",
			template: "articles/{id}/comments/{page?}",
			want: []string{
				`^articles/(?P<id>[^/]+)$`,
				`^articles/(?P<id>[^/]+)/comments/(?P<page>[^/]+)$`,
			},
		},
		{
			name:     "optional declared by option",
			template: "articles/{id}/comments/{page}",
			opts:     []route.CompileOption{route.WithParams(route.Param{Name: "page", Optional: true})},
			want: []string{
				`^articles/(?P<id>[^/]+)$`,
				`^articles/(?P<id>[^/]+)/comments/(?P<page>[^/]+)$`,
			},
		},
		{
			name:     "leading optional keeps literal",
			template: "archive/{year?:int}/{month?:int}",
			want: []string{
				`^archive$`,
				`^archive/(?P<year>[0-9]+)$`,
				`^archive/(?P<year>[0-9]+)/(?P<month>[0-9]+)$`,
			},
		},
		{
			name:     "group remainder",
			template: "orgs/{org:slug}",
			opts:     []route.CompileOption{route.AsGroup()},
			want: []string{
				`^orgs/(?P<org>[a-z0-9]+(?:-[a-z0-9]+)*)$`,
				`^orgs/(?P<org>[a-z0-9]+(?:-[a-z0-9]+)*)/(?P<_rest>.+)$`,
			},
		},
		{
			name:     "group at root",
			template: "",
			opts:     []route.CompileOption{route.AsGroup()},
			want:     []string{`^$`, `^(?P<_rest>.+)$`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := route.Compile(tt.template, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Alternatives())
		})
	}
}

func TestCompile_OptionalCount(t *testing.T) {
	t.Parallel()

	p, err := route.Compile("a/{k1}/{k2}/{o1?}/{o2?}/{o3?}")
	require.NoError(t, err)
	assert.Len(t, p.Alternatives(), 4)
	assert.Len(t, p.Params(), 5)
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		opts     []route.CompileOption
		err      error
	}{
		{"required after optional", "a/{x?}/{y}", nil, route.ErrOptionalOrder},
		{"unknown parameter", "users/{id}", []route.CompileOption{route.KnownParams("uid")}, route.ErrUnknownParam},
		{"duplicate parameter", "a/{id}/b/{id}", nil, route.ErrDuplicateParam},
		{"unclosed brace", "a/{id", nil, route.ErrParamDelimiter},
		{"stray brace", "a/id}", nil, route.ErrParamDelimiter},
		{"invalid name", "a/{1d}", nil, route.ErrInvalidPlaceholder},
		{"invalid regexp", "a/{id:[0-9}", nil, route.ErrInvalidRegexp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := route.Compile(tt.template, tt.opts...)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("groups allow required after optional", func(t *testing.T) {
		t.Parallel()

		_, err := route.Compile("a/{x?}/{y}", route.AsGroup())
		assert.NoError(t, err)
	})
}

func TestPattern_Match(t *testing.T) {
	t.Parallel()

	p, err := route.Compile("articles/{id:int}/comments/{page?}")
	require.NoError(t, err)

	params, rest, ok := p.Match("/articles/42")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "42"}, params)
	assert.Empty(t, rest)

	params, _, ok = p.Match("articles/42/comments/3/")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "42", "page": "3"}, params)

	_, _, ok = p.Match("articles/42/comments")
	assert.False(t, ok)

	_, _, ok = p.Match("articles/abc")
	assert.False(t, ok)

	nested, err := route.Compile("files/{name:[a-z]{3}\\.txt}")
	require.NoError(t, err)
	params, _, ok = nested.Match("files/abc.txt")
	require.True(t, ok)
	assert.Equal(t, "abc.txt", params["name"])

	group, err := route.Compile("orgs/{org}", route.AsGroup())
	require.NoError(t, err)
	params, rest, ok = group.Match("orgs/acme/users/7")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"org": "acme"}, params)
	assert.Equal(t, "users/7", rest)
}

func TestPattern_Match_ShortestAlternativeFirst(t *testing.T) {
	t.Parallel()

	p, err := route.Compile("docs/{a:.+}/{b?}")
	require.NoError(t, err)

	params, _, ok := p.Match("docs/x/y")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"a": "x/y"}, params)
}

func TestPattern_Build(t *testing.T) {
	t.Parallel()

	p, err := route.Compile("articles/{id:int}/comments/{page?}")
	require.NoError(t, err)

	got, err := p.Build(map[string]string{"id": "42", "page": "2"})
	require.NoError(t, err)
	assert.Equal(t, "articles/42/comments/2", got)

	got, err = p.Build(map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "articles/42", got)

	_, err = p.Build(map[string]string{})
	assert.ErrorIs(t, err, route.ErrMissingParam)

	_, err = p.Build(map[string]string{"id": "x"})
	assert.ErrorIs(t, err, route.ErrInvalidParamValue)

	files, err := route.Compile("static/{path:path}")
	require.NoError(t, err)
	got, err = files.Build(map[string]string{"path": "css/a b.css"})
	require.NoError(t, err)
	assert.Equal(t, "static/css/a%20b.css", got)
}

func TestPattern_Canonical(t *testing.T) {
	t.Parallel()

	a, err := route.Compile("users/{id}")
	require.NoError(t, err)
	b, err := route.Compile("users/{uid}")
	require.NoError(t, err)
	c, err := route.Compile("users/{id:int}")
	require.NoError(t, err)

	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.NotEqual(t, a.Canonical(), c.Canonical())
}
