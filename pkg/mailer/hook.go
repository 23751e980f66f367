package mailer

import (
	"context"
	"encoding/json"
	"fmt"
)

// Well-known part names.
const (
	PartHTML    = "html"
	PartText    = "text"
	PartSubject = "subject"
)

// RenderRequest is sent to a render hook once per message part.
type RenderRequest struct {
	Content map[string]any `json:"content"`
	Merge   map[string]any `json:"merge"`
	Code    string         `json:"code"`
	Owner   string         `json:"owner"`
	Orbit   string         `json:"orbit"`
	Part    string         `json:"part"`
}

// Ref returns the template reference addressed by the request.
func (r RenderRequest) Ref() TemplateRef {
	return TemplateRef{Code: r.Code, Owner: r.Owner, Orbit: r.Orbit}
}

// RenderResult is a render hook answer.
// A nil *RenderResult means the hook has no opinion about the request.
//
// On the wire the result is a flat object: every part is a top-level string
// key, "ok" is false only for failures and "why" explains them.
type RenderResult struct {
	Parts  map[string]string
	Why    string
	Failed bool
}

// Rendered builds a successful result from part/content pairs.
func Rendered(parts map[string]string) *RenderResult {
	return &RenderResult{Parts: parts}
}

// Failure builds a result that reports ok=false.
func Failure(why string) *RenderResult {
	return &RenderResult{Failed: true, Why: why}
}

// Part returns the rendered content for the named part.
func (r *RenderResult) Part(name string) (string, bool) {
	if r == nil || r.Parts == nil {
		return "", false
	}
	s, ok := r.Parts[name]
	return s, ok
}

func (r RenderResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Parts)+2)
	for k, v := range r.Parts {
		out[k] = v
	}
	if r.Failed {
		out["ok"] = false
	}
	if r.Why != "" {
		out["why"] = r.Why
	}
	return json.Marshal(out)
}

func (r *RenderResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = RenderResult{Parts: make(map[string]string, len(raw))}
	for k, v := range raw {
		switch k {
		case "ok":
			var ok bool
			if err := json.Unmarshal(v, &ok); err != nil {
				return fmt.Errorf("render result: ok: %w", err)
			}
			r.Failed = !ok
		case "why":
			if err := json.Unmarshal(v, &r.Why); err != nil {
				return fmt.Errorf("render result: why: %w", err)
			}
		default:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				// Non-string extras are not parts.
				continue
			}
			r.Parts[k] = s
		}
	}
	return nil
}

// RenderHook produces rendered content for a template part.
// Returning (nil, nil) means the hook has nothing for the request.
type RenderHook interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}

// RenderHookFunc adapts a function to RenderHook.
type RenderHookFunc func(ctx context.Context, req RenderRequest) (*RenderResult, error)

// Render implements RenderHook.
func (f RenderHookFunc) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	return f(ctx, req)
}
