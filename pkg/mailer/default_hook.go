package mailer

import (
	"bytes"
	"context"
	"encoding/json"
)

const noRenderPrefix = "NO RENDER DEFINED FOR "

// DefaultHook is used when no render hook is configured.
// It always answers with a single diagnostic "html" part, whatever part was
// requested, so a "text" request resolves to nothing.
type DefaultHook struct{}

// Render implements RenderHook.
func (DefaultHook) Render(_ context.Context, req RenderRequest) (*RenderResult, error) {
	content, err := stringify(req.Content)
	if err != nil {
		return nil, err
	}

	return Rendered(map[string]string{
		PartHTML: noRenderPrefix + req.Code + ", content was: " + content,
	}), nil
}

// stringify encodes v the way JSON.stringify does: compact, sorted keys,
// no HTML escaping.
func stringify(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
