package mailer

import (
	"context"
	"errors"
	"fmt"
)

// Delegate bridges part rendering into a RenderHook.
type Delegate struct {
	hook    RenderHook
	inliner Inliner
}

// NewDelegate creates a delegate. A nil hook falls back to DefaultHook,
// a nil inliner to NopInliner.
func NewDelegate(hook RenderHook, inliner Inliner) *Delegate {
	if hook == nil {
		hook = DefaultHook{}
	}
	if inliner == nil {
		inliner = NopInliner{}
	}
	return &Delegate{hook: hook, inliner: inliner}
}

// Hook returns the render hook in use.
func (d *Delegate) Hook() RenderHook {
	return d.hook
}

// Render renders one part addressed by view ("<token>/<part>").
// The boolean result is false when the hook has no content for the part;
// callers treat that as an empty part, not as an error.
func (d *Delegate) Render(ctx context.Context, view string, content, merge map[string]any) (string, bool, error) {
	ref, part, err := ParseView(view)
	if err != nil {
		return "", false, err
	}

	res, err := d.hook.Render(ctx, RenderRequest{
		Code:    ref.Code,
		Owner:   ref.Owner,
		Orbit:   ref.Orbit,
		Part:    part,
		Content: content,
		Merge:   merge,
	})
	if err != nil {
		if errors.Is(err, ErrRenderFailed) {
			return "", false, err
		}
		return "", false, errors.Join(ErrHookFailed, fmt.Errorf("%s: %w", view, err))
	}
	if res == nil {
		return "", false, nil
	}

	if res.Failed {
		why := res.Why
		if why == "" {
			why = defaultWhy
		}
		return "", false, &RenderError{Code: ref.Code, Part: part, Why: why}
	}

	out, ok := res.Part(part)
	if !ok {
		return "", false, nil
	}

	if part == PartHTML {
		out, err = d.inliner.Inline(ctx, out)
		if err != nil {
			return "", false, errors.Join(ErrRenderFailed, err)
		}
	}

	return out, true, nil
}
