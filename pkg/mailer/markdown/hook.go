// Package markdown renders mail parts from markdown files with YAML
// frontmatter. Files are looked up by template token, most specific first:
// welcome~acme~trial.md, welcome~acme.md, welcome~~trial.md, welcome.md.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// ErrLayoutNotFound is returned when a template names a missing layout.
var ErrLayoutNotFound = errors.New("markdown: layout not found")

// Config configures the markdown hook.
type Config struct {
	TemplateDir string `env:"MAILER_TEMPLATE_DIR" envDefault:"."`
	LayoutDir   string `env:"MAILER_LAYOUT_DIR" envDefault:"layouts"`
	// Layout is used when a template does not name one. Empty means none.
	Layout string `env:"MAILER_LAYOUT" envDefault:""`
}

type compiled struct {
	head    header
	body    *texttemplate.Template
	subject *texttemplate.Template
}

// Hook implements mailer.RenderHook over a file system of markdown templates.
type Hook struct {
	fsys fs.FS
	cfg  Config
	md   goldmark.Markdown

	mu        sync.RWMutex
	templates map[string]*compiled
	layouts   map[string]*template.Template
}

var _ mailer.RenderHook = (*Hook)(nil)

// NewHook creates a hook reading templates from fsys.
func NewHook(fsys fs.FS, cfg Config) *Hook {
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = "."
	}
	if cfg.LayoutDir == "" {
		cfg.LayoutDir = "layouts"
	}
	return &Hook{
		fsys:      fsys,
		cfg:       cfg,
		md:        goldmark.New(goldmark.WithExtensions(Buttons())),
		templates: make(map[string]*compiled),
		layouts:   make(map[string]*template.Template),
	}
}

// Render implements mailer.RenderHook.
// Every part is produced at once: html (markdown through the layout),
// text (the executed markdown source) and subject when the header has one.
// A token with no matching file yields a nil result.
func (h *Hook) Render(ctx context.Context, req mailer.RenderRequest) (*mailer.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tpl, err := h.lookup(req.Ref())
	if err != nil || tpl == nil {
		return nil, err
	}

	data := make(map[string]any, len(req.Content)+len(req.Merge))
	maps.Copy(data, req.Content)
	maps.Copy(data, req.Merge)

	var src bytes.Buffer
	if err := tpl.body.Execute(&src, data); err != nil {
		return mailer.Failure(err.Error()), nil
	}

	var body bytes.Buffer
	if err := h.md.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("%w: convert markdown: %v", mailer.ErrRenderFailed, err)
	}

	parts := map[string]string{
		mailer.PartText: src.String(),
	}

	var subject bytes.Buffer
	if tpl.subject != nil {
		if err := tpl.subject.Execute(&subject, data); err != nil {
			return mailer.Failure(err.Error()), nil
		}
		parts[mailer.PartSubject] = subject.String()
	}

	layoutName := tpl.head.Layout
	if layoutName == "" {
		layoutName = h.cfg.Layout
	}
	if layoutName == "" {
		parts[mailer.PartHTML] = body.String()
		return mailer.Rendered(parts), nil
	}

	layout, err := h.layout(layoutName)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := layout.Execute(&out, map[string]any{
		"Content": template.HTML(body.String()),
		"Subject": subject.String(),
		"Meta":    tpl.head.Meta,
		"Data":    data,
	}); err != nil {
		return mailer.Failure(err.Error()), nil
	}
	parts[mailer.PartHTML] = out.String()

	return mailer.Rendered(parts), nil
}

// lookup returns the most specific compiled template for ref, or nil.
func (h *Hook) lookup(ref mailer.TemplateRef) (*compiled, error) {
	for _, candidate := range ref.Candidates() {
		tpl, err := h.template(candidate + ".md")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return tpl, err
	}
	return nil, nil
}

func (h *Hook) template(name string) (*compiled, error) {
	h.mu.RLock()
	tpl, ok := h.templates[name]
	h.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	content, err := fs.ReadFile(h.fsys, path.Join(h.cfg.TemplateDir, name))
	if err != nil {
		return nil, err
	}

	head, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", mailer.ErrRenderFailed, name, err)
	}

	tpl = &compiled{head: head}
	if tpl.body, err = texttemplate.New(name).Parse(string(body)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", mailer.ErrRenderFailed, name, err)
	}
	if head.Subject != "" {
		if tpl.subject, err = texttemplate.New(name + ":subject").Parse(head.Subject); err != nil {
			return nil, fmt.Errorf("%w: %s: subject: %v", mailer.ErrRenderFailed, name, err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if cached, ok := h.templates[name]; ok {
		return cached, nil
	}
	h.templates[name] = tpl
	return tpl, nil
}

func (h *Hook) layout(name string) (*template.Template, error) {
	h.mu.RLock()
	l, ok := h.layouts[name]
	h.mu.RUnlock()
	if ok {
		return l, nil
	}

	content, err := fs.ReadFile(h.fsys, path.Join(h.cfg.LayoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLayoutNotFound, name, err)
	}

	l, err = template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", mailer.ErrRenderFailed, name, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if cached, ok := h.layouts[name]; ok {
		return cached, nil
	}
	h.layouts[name] = l
	return l, nil
}
