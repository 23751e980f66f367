package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindButton is the node kind for Button.
var KindButton = ast.NewNodeKind("Button")

const buttonMarker = "[!button"

// Button is a call-to-action link written as [!button|Label](URL)
// or [!button:variant|Label](URL).
type Button struct {
	ast.BaseInline
	URL     []byte
	Label   []byte
	Variant []byte
}

// Kind implements ast.Node.
func (b *Button) Kind() ast.NodeKind { return KindButton }

// Dump implements ast.Node.
func (b *Button) Dump(source []byte, level int) {
	ast.DumpHelper(b, source, level, map[string]string{
		"URL":     string(b.URL),
		"Label":   string(b.Label),
		"Variant": string(b.Variant),
	}, nil)
}

type buttonParser struct{}

func (buttonParser) Trigger() []byte { return []byte{'['} }

func (buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte(buttonMarker)) {
		return nil
	}
	rest := line[len(buttonMarker):]

	var variant []byte
	if len(rest) > 0 && rest[0] == ':' {
		end := bytes.IndexByte(rest, '|')
		if end < 0 {
			return nil
		}
		variant = rest[1:end]
		if !isVariant(variant) {
			return nil
		}
		rest = rest[end:]
	}
	if len(rest) == 0 || rest[0] != '|' {
		return nil
	}
	rest = rest[1:]

	labelEnd := bytes.IndexByte(rest, ']')
	if labelEnd < 0 || labelEnd+1 >= len(rest) || rest[labelEnd+1] != '(' {
		return nil
	}
	label := rest[:labelEnd]

	target := rest[labelEnd+2:]
	urlEnd := bytes.IndexByte(target, ')')
	if urlEnd < 0 {
		return nil
	}

	consumed := len(line) - len(target) + urlEnd + 1
	block.Advance(consumed)

	return &Button{
		URL:     target[:urlEnd],
		Label:   label,
		Variant: variant,
	}
}

// isVariant accepts class-name-safe identifiers only.
func isVariant(v []byte) bool {
	if len(v) == 0 {
		return false
	}
	for _, c := range v {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

type buttonRenderer struct {
	html.Config
}

func (r *buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.render)
}

func (r *buttonRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	b := node.(*Button)

	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(b.URL))
	_, _ = w.WriteString(`" class="btn`)
	if len(b.Variant) > 0 {
		_, _ = w.WriteString(" btn-")
		_, _ = w.Write(b.Variant)
	}
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML(b.Label))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkContinue, nil
}

type buttonExtension struct{}

func (buttonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(buttonParser{}, 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&buttonRenderer{Config: html.NewConfig()}, 50),
	))
}

// Buttons returns the goldmark extension handling button links.
func Buttons() goldmark.Extender {
	return buttonExtension{}
}
