package mailer

import (
	"context"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultParts are rendered when no part list is configured.
var DefaultParts = []string{PartHTML, PartText}

var (
	stripPolicy     *bluemonday.Policy
	stripPolicyOnce sync.Once
)

// Composed holds the composed parts of one message.
type Composed struct {
	Parts   map[string]string
	HTML    string
	Text    string
	Subject string
}

// Composer renders message parts through a Delegate, one part at a time.
type Composer struct {
	delegate     *Delegate
	parts        []string
	textFromHTML bool
}

// NewComposer creates a composer for the given parts.
// An empty part list uses DefaultParts.
func NewComposer(delegate *Delegate, parts []string, textFromHTML bool) *Composer {
	if len(parts) == 0 {
		parts = DefaultParts
	}
	return &Composer{
		delegate:     delegate,
		parts:        append([]string(nil), parts...),
		textFromHTML: textFromHTML,
	}
}

// Compose renders every configured part for the template token.
// Parts are rendered sequentially; a missing part stays empty.
func (c *Composer) Compose(ctx context.Context, token string, content, merge map[string]any) (*Composed, error) {
	out := &Composed{Parts: make(map[string]string, len(c.parts))}

	for _, part := range c.parts {
		s, ok, err := c.delegate.Render(ctx, ViewName(token, part), content, merge)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out.Parts[part] = s
	}

	out.HTML = out.Parts[PartHTML]
	out.Text = out.Parts[PartText]
	out.Subject = strings.TrimSpace(out.Parts[PartSubject])

	if out.Text == "" && out.HTML != "" && c.textFromHTML {
		out.Text = htmlToText(out.HTML)
	}

	return out, nil
}

// htmlToText strips every tag and collapses blank lines.
func htmlToText(markup string) string {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})

	plain := html.UnescapeString(stripPolicy.Sanitize(markup))
	lines := strings.Split(plain, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
