package mailer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/vanng822/go-premailer/premailer"
)

// Inliner post-processes rendered HTML parts.
type Inliner interface {
	Inline(ctx context.Context, html string) (string, error)
}

// NopInliner returns HTML unchanged.
type NopInliner struct{}

// Inline implements Inliner.
func (NopInliner) Inline(_ context.Context, html string) (string, error) {
	return html, nil
}

// CSSInliner moves stylesheet rules into style attributes so mail clients
// that drop <style> blocks still render the message.
// Relative <link rel="stylesheet"> references are loaded from assets first;
// remote references are left as is.
type CSSInliner struct {
	assets fs.FS
	opts   *premailer.Options
}

// NewCSSInliner creates an inliner. assets may be nil, in which case only
// inline <style> blocks are processed.
func NewCSSInliner(assets fs.FS) *CSSInliner {
	opts := premailer.NewOptions()
	opts.RemoveClasses = false
	opts.CssToAttributes = false
	return &CSSInliner{assets: assets, opts: opts}
}

// Inline implements Inliner.
// HTML without any style information is returned untouched, fragments included.
func (i *CSSInliner) Inline(ctx context.Context, html string) (string, error) {
	if !hasStyles(html) {
		return html, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("inline css: parse html: %w", err)
	}

	if i.assets != nil {
		var loadErr error
		doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || isRemote(href) {
				return
			}
			css, err := fs.ReadFile(i.assets, path.Clean(strings.TrimPrefix(href, "/")))
			if err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("inline css: %s: %w", href, err))
				return
			}
			s.ReplaceWithHtml("<style>" + string(css) + "</style>")
		})
		if loadErr != nil {
			return "", loadErr
		}
	}

	resolved, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("inline css: serialize html: %w", err)
	}

	prem, err := premailer.NewPremailerFromString(resolved, i.opts)
	if err != nil {
		return "", fmt.Errorf("inline css: %w", err)
	}

	out, err := prem.Transform()
	if err != nil {
		return "", fmt.Errorf("inline css: %w", err)
	}
	return out, nil
}

func hasStyles(html string) bool {
	lower := strings.ToLower(html)
	return strings.Contains(lower, "<style") || strings.Contains(lower, "stylesheet")
}

func isRemote(href string) bool {
	return strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//")
}
