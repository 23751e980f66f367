package markdown

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

func templates() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`<html><head><title>{{.Subject}}</title></head><body>{{.Content}}<footer>{{.Meta.brand}}</footer></body></html>`),
		},
		"mail/welcome.md": &fstest.MapFile{
			Data: []byte("---\nsubject: Welcome {{.name}}\nlayout: base.html\nbrand: Acme\n---\nHello **{{.name}}**!\n"),
		},
		"mail/welcome~acme.md": &fstest.MapFile{
			Data: []byte("---\nsubject: Acme welcomes {{.name}}\n---\nHi {{.name}} from Acme\n"),
		},
		"mail/welcome~~trial.md": &fstest.MapFile{
			Data: []byte("Trial {{.name}} {{.plan}}\n"),
		},
		"mail/broken.md": &fstest.MapFile{
			Data: []byte("Hello {{.name.first}}\n"),
		},
	}
}

func newHook() *Hook {
	return NewHook(templates(), Config{TemplateDir: "mail", LayoutDir: "layouts"})
}

func TestHook_Render_WithLayout(t *testing.T) {
	t.Parallel()

	res, err := newHook().Render(context.Background(), mailer.RenderRequest{
		Code:    "welcome",
		Part:    mailer.PartHTML,
		Content: map[string]any{"name": "Alice"},
	})
	require.NoError(t, err)

	html, ok := res.Part(mailer.PartHTML)
	require.True(t, ok)
	require.Contains(t, html, "<strong>Alice</strong>")
	require.Contains(t, html, "<title>Welcome Alice</title>")
	require.Contains(t, html, "<footer>Acme</footer>")

	text, _ := res.Part(mailer.PartText)
	require.Equal(t, "Hello **Alice**!\n", text)

	subject, _ := res.Part(mailer.PartSubject)
	require.Equal(t, "Welcome Alice", subject)
}

func TestHook_Render_Candidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  mailer.RenderRequest
		want string
	}{
		{
			name: "owner specific",
			req:  mailer.RenderRequest{Code: "welcome", Owner: "acme", Orbit: "trial"},
			want: "Hi Bob from Acme\n",
		},
		{
			name: "orbit specific",
			req:  mailer.RenderRequest{Code: "welcome", Owner: "other", Orbit: "trial"},
			want: "Trial Bob pro\n",
		},
		{
			name: "fallback to code",
			req:  mailer.RenderRequest{Code: "welcome", Owner: "other"},
			want: "Hello **Bob**!\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.req.Part = mailer.PartText
			tt.req.Content = map[string]any{"name": "Bob", "plan": "free"}
			tt.req.Merge = map[string]any{"plan": "pro"}

			res, err := newHook().Render(context.Background(), tt.req)
			require.NoError(t, err)

			text, ok := res.Part(mailer.PartText)
			require.True(t, ok)
			require.Equal(t, tt.want, text)
		})
	}
}

func TestHook_Render_NoLayout(t *testing.T) {
	t.Parallel()

	res, err := newHook().Render(context.Background(), mailer.RenderRequest{
		Code:    "welcome",
		Owner:   "acme",
		Content: map[string]any{"name": "Alice"},
	})
	require.NoError(t, err)

	html, _ := res.Part(mailer.PartHTML)
	require.Equal(t, "<p>Hi Alice from Acme</p>\n", html)
}

func TestHook_Render_NotFound(t *testing.T) {
	t.Parallel()

	res, err := newHook().Render(context.Background(), mailer.RenderRequest{Code: "missing", Part: mailer.PartHTML})

	require.NoError(t, err)
	require.Nil(t, res)
}

func TestHook_Render_ExecutionFailure(t *testing.T) {
	t.Parallel()

	res, err := newHook().Render(context.Background(), mailer.RenderRequest{
		Code:    "broken",
		Content: map[string]any{"name": "Alice"},
	})

	require.NoError(t, err)
	require.True(t, res.Failed)
	require.NotEmpty(t, res.Why)
}

func TestHook_Render_MissingLayout(t *testing.T) {
	t.Parallel()

	hook := NewHook(templates(), Config{TemplateDir: "mail", Layout: "nope.html"})
	_, err := hook.Render(context.Background(), mailer.RenderRequest{Code: "welcome", Owner: "acme"})

	require.ErrorIs(t, err, ErrLayoutNotFound)
}

func TestHook_ThroughDelegate(t *testing.T) {
	t.Parallel()

	d := mailer.NewDelegate(newHook(), nil)

	subject, ok, err := d.Render(context.Background(), "welcome~acme/subject", map[string]any{"name": "Eve"}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Acme welcomes Eve", subject)

	_, ok, err = d.Render(context.Background(), "unknown/html", nil, nil)
	require.NoError(t, err)
	require.False(t, ok)
}
