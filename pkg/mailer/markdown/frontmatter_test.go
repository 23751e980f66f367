package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	t.Parallel()

	head, body, err := splitFrontmatter([]byte("---\nsubject: Welcome {{.name}}\nlayout: base.html\nbrand: Acme\n---\n# Hi\n"))

	require.NoError(t, err)
	require.Equal(t, "Welcome {{.name}}", head.Subject)
	require.Equal(t, "base.html", head.Layout)
	require.Equal(t, map[string]any{"brand": "Acme"}, head.Meta)
	require.Equal(t, "# Hi\n", string(body))
}

func TestSplitFrontmatter_NoHeader(t *testing.T) {
	t.Parallel()

	head, body, err := splitFrontmatter([]byte("# Hi"))

	require.NoError(t, err)
	require.Empty(t, head.Subject)
	require.Equal(t, "# Hi", string(body))
}

func TestSplitFrontmatter_WindowsLineEndings(t *testing.T) {
	t.Parallel()

	head, body, err := splitFrontmatter([]byte("---\r\nsubject: Hi\r\n---\r\nBody"))

	require.NoError(t, err)
	require.Equal(t, "Hi", head.Subject)
	require.Equal(t, "Body", string(body))
}

func TestSplitFrontmatter_EmptyHeader(t *testing.T) {
	t.Parallel()

	head, body, err := splitFrontmatter([]byte("---\n---\nBody"))

	require.NoError(t, err)
	require.Empty(t, head.Meta)
	require.Equal(t, "Body", string(body))
}

func TestSplitFrontmatter_Invalid(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"---\nsubject: Hi\nBody",
		"---\nsubject: [unclosed\n---\nBody",
	} {
		_, _, err := splitFrontmatter([]byte(src))
		require.ErrorIs(t, err, ErrInvalidFrontmatter, src)
	}
}
