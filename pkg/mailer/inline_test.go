package mailer

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCSSInliner_StyleBlock(t *testing.T) {
	t.Parallel()

	in := NewCSSInliner(nil)
	out, err := in.Inline(context.Background(),
		`<html><head><style>p { color: red; }</style></head><body><p>hi</p></body></html>`)

	require.NoError(t, err)
	require.Regexp(t, `<p[^>]*style="[^"]*color:\s*red`, out)
}

func TestCSSInliner_LinkedStylesheet(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{
		"css/mail.css": &fstest.MapFile{Data: []byte("p { color: red; }")},
	}

	in := NewCSSInliner(assets)
	out, err := in.Inline(context.Background(),
		`<html><head><link rel="stylesheet" href="/css/mail.css"></head><body><p>hi</p></body></html>`)

	require.NoError(t, err)
	require.NotContains(t, out, "<link")
	require.Regexp(t, `<p[^>]*style="[^"]*color:\s*red`, out)
}

func TestCSSInliner_MissingStylesheet(t *testing.T) {
	t.Parallel()

	in := NewCSSInliner(fstest.MapFS{})
	_, err := in.Inline(context.Background(),
		`<html><head><link rel="stylesheet" href="missing.css"></head><body></body></html>`)

	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCSSInliner_FragmentWithoutStyles(t *testing.T) {
	t.Parallel()

	in := NewCSSInliner(nil)
	frag := `NO RENDER DEFINED FOR x, content was: {"a":1}`

	out, err := in.Inline(context.Background(), frag)

	require.NoError(t, err)
	require.Equal(t, frag, out)
}

func TestCSSInliner_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSSInliner(nil).Inline(ctx, `<style>p{}</style><p>x</p>`)
	require.ErrorIs(t, err, context.Canceled)
}
