package uritemplate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoodman/mcp-runtime-go/uritemplate"
)

func TestParse_Segments(t *testing.T) {
	tpl, err := uritemplate.Parse("/users/:id/posts/{post}/{key:2}{?lang,page}")
	require.NoError(t, err)

	assert.Equal(t, []uritemplate.Segment{
		uritemplate.Literal("users"),
		uritemplate.Variable{Name: "id"},
		uritemplate.Literal("posts"),
		uritemplate.Variable{Name: "post"},
		uritemplate.PrefixVariable{Name: "key", Length: 2},
		uritemplate.QuerySet{Names: []string{"lang", "page"}},
	}, tpl.Segments())
	assert.Equal(t, []string{"id", "post", "key", "lang", "page"}, tpl.Vars())
	assert.True(t, tpl.IsTemplated())
}

func TestParse_KeepsInternalEmptySegments(t *testing.T) {
	tpl, err := uritemplate.Parse("https://x/users/{id}")
	require.NoError(t, err)

	assert.Equal(t, []uritemplate.Segment{
		uritemplate.Literal("https:"),
		uritemplate.Literal(""),
		uritemplate.Literal("x"),
		uritemplate.Literal("users"),
		uritemplate.Variable{Name: "id"},
	}, tpl.Segments())
}

func TestParse_Static(t *testing.T) {
	tpl, err := uritemplate.Parse("file:///etc/motd")
	require.NoError(t, err)
	assert.False(t, tpl.IsTemplated())
	assert.Empty(t, tpl.Vars())
}

func TestParse_Invalid(t *testing.T) {
	for _, raw := range []string{
		"/a/{id:0}",
		"/a/{id:x}",
		"/a/{id}/{id}",
		"/a/{id}{?id}",
		"/a{?q,,r}",
	} {
		_, err := uritemplate.Parse(raw)
		assert.ErrorIs(t, err, uritemplate.ErrInvalidTemplate, raw)
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]any
		want     string
	}{
		{"mixed variable styles", "/users/:id/posts/{post}", map[string]any{"id": 42, "post": "hello"}, "/users/42/posts/hello"},
		{"absolute uri", "https://x/users/{id}", map[string]any{"id": "42"}, "https://x/users/42"},
		{"prefix truncates", "/shards/{key:2}", map[string]any{"key": "abcdef"}, "/shards/ab"},
		{"query includes present only", "/search{?q,lang}", map[string]any{"q": "a b&c"}, "/search?q=a+b%26c"},
		{"query in declared order", "/search{?q,lang}", map[string]any{"lang": "en", "q": "go"}, "/search?q=go&lang=en"},
		{"query absent entirely", "/search{?q}", map[string]any{}, "/search"},
		{"no slash before query", "/docs/{id}/{?v}", map[string]any{"id": 1, "v": true}, "/docs/1?v=true"},
		{"floats render without exponent", "/n/{x}", map[string]any{"x": 1.5}, "/n/1.5"},
		{"no leading slash", "a/{b}", map[string]any{"b": "c"}, "a/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uritemplate.MustParse(tt.template).Interpolate(tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolate_MissingVariable(t *testing.T) {
	tpl := uritemplate.MustParse("/users/{id}")
	for _, vars := range []map[string]any{nil, {"id": nil}} {
		_, err := tpl.Interpolate(vars)
		var missing *uritemplate.MissingVariableError
		require.True(t, errors.As(err, &missing), "got %v", err)
		assert.Equal(t, "id", missing.Name)
	}
}

func TestInterpolate_PrefixTooShort(t *testing.T) {
	_, err := uritemplate.MustParse("/shards/{key:4}").Interpolate(map[string]any{"key": "ab"})
	var short *uritemplate.PrefixTooShortError
	require.True(t, errors.As(err, &short), "got %v", err)
	assert.Equal(t, 4, short.Length)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		template string
		uri      string
		want     map[string]string
		ok       bool
	}{
		{"absolute", "https://x/users/{id}", "https://x/users/42", map[string]string{"id": "42"}, true},
		{"colon and brace", "/users/:id/posts/{post}", "/users/42/posts/hello", map[string]string{"id": "42", "post": "hello"}, true},
		{"literal mismatch", "/users/{id}", "/groups/42", nil, false},
		{"too many segments", "/users/{id}", "/users/42/extra", nil, false},
		{"too few segments", "/users/{id}/posts", "/users/42", nil, false},
		{"prefix exact length", "/shards/{key:2}", "/shards/ab", map[string]string{"key": "ab"}, true},
		{"prefix longer", "/shards/{key:2}", "/shards/abc", nil, false},
		{"prefix shorter", "/shards/{key:2}", "/shards/a", nil, false},
		{"declared query merged", "/search{?q,lang}", "/search?q=a+b%26c&other=1", map[string]string{"q": "a b&c"}, true},
		{"query optional", "/search{?q}", "/search", map[string]string{}, true},
		{"undeclared query ignored", "/items/{id}", "/items/7?q=1", map[string]string{"id": "7"}, true},
		{"no coercion", "/n/{x}", "/n/007", map[string]string{"x": "007"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := uritemplate.MustParse(tt.template).Match(tt.uri)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMatch_RoundTripsInterpolate(t *testing.T) {
	templates := []string{
		"/users/:id/posts/{post}",
		"https://x/users/{id}",
		"repo://{owner}/{name}/tree/{ref}",
	}
	assignments := []map[string]any{
		{"id": 42, "post": "hello", "owner": "go", "name": "tools", "ref": "main"},
		{"id": "abc", "post": 3.25, "owner": "o", "name": "n", "ref": true},
		{"id": 0, "post": "x-y_z", "owner": "a.b", "name": "c~d", "ref": int64(-7)},
	}
	for _, raw := range templates {
		tpl := uritemplate.MustParse(raw)
		for _, vars := range assignments {
			uri, err := tpl.Interpolate(vars)
			require.NoError(t, err)

			got, ok := tpl.Match(uri)
			require.True(t, ok, "%s did not match %s", uri, raw)

			want := make(map[string]string)
			for _, name := range tpl.Vars() {
				want[name] = uritemplate.Stringify(vars[name])
			}
			assert.Equal(t, want, got, raw)
		}
	}
}
