package mailer

import (
	"fmt"
	"strings"
)

const (
	// TokenSeparator joins code, owner and orbit inside a template token.
	TokenSeparator = "~"

	// PartSeparator joins a template token and a part name inside a view name.
	PartSeparator = "/"
)

// TemplateRef identifies a template variant.
// Owner and Orbit are optional; the empty string means "not set".
type TemplateRef struct {
	Code  string `json:"code"`
	Owner string `json:"owner,omitempty"`
	Orbit string `json:"orbit,omitempty"`
}

// EncodeTemplate builds the template token for code, owner and orbit.
//
//	welcome              -> welcome
//	welcome, acme        -> welcome~acme
//	welcome, acme, trial -> welcome~acme~trial
//	welcome, "", trial   -> welcome~~trial
//
// An empty owner slot is kept when an orbit is present so that decoding
// can tell "no owner, has orbit" from "has owner, no orbit".
func EncodeTemplate(code, owner, orbit string) string {
	var b strings.Builder
	b.Grow(len(code) + len(owner) + len(orbit) + 2)
	b.WriteString(code)

	if owner != "" {
		b.WriteString(TokenSeparator)
		b.WriteString(owner)
	}

	if orbit != "" {
		if owner == "" {
			b.WriteString(TokenSeparator)
		}
		b.WriteString(TokenSeparator)
		b.WriteString(orbit)
	}

	return b.String()
}

// DecodeTemplate splits a template token back into its code, owner and orbit.
// A token without separators is a bare code.
func DecodeTemplate(token string) (TemplateRef, error) {
	if token == "" {
		return TemplateRef{}, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	if strings.Contains(token, PartSeparator) {
		return TemplateRef{}, fmt.Errorf("%w: %q contains %q", ErrMalformedToken, token, PartSeparator)
	}

	segments := strings.Split(token, TokenSeparator)
	if len(segments) > 3 {
		return TemplateRef{}, fmt.Errorf("%w: %q has too many segments", ErrMalformedToken, token)
	}
	if segments[0] == "" {
		return TemplateRef{}, fmt.Errorf("%w: %q has no code", ErrMalformedToken, token)
	}

	ref := TemplateRef{Code: segments[0]}
	if len(segments) > 1 {
		ref.Owner = segments[1]
	}
	if len(segments) > 2 {
		ref.Orbit = segments[2]
	}

	return ref, nil
}

// ParseView decodes a view name of the form "<token>/<part>".
func ParseView(view string) (TemplateRef, string, error) {
	token, part, ok := strings.Cut(view, PartSeparator)
	if !ok || part == "" {
		return TemplateRef{}, "", fmt.Errorf("%w: view %q has no part", ErrMalformedToken, view)
	}

	ref, err := DecodeTemplate(token)
	if err != nil {
		return TemplateRef{}, "", err
	}

	return ref, part, nil
}

// ViewName joins a template token and a part name.
func ViewName(token, part string) string {
	return token + PartSeparator + part
}

// Token re-encodes the reference.
func (r TemplateRef) Token() string {
	return EncodeTemplate(r.Code, r.Owner, r.Orbit)
}

// Candidates lists template tokens from the most specific variant to the
// bare code. Template sources use it to fall back from a tenant and orbit
// specific template to the generic one.
func (r TemplateRef) Candidates() []string {
	all := []string{
		EncodeTemplate(r.Code, r.Owner, r.Orbit),
		EncodeTemplate(r.Code, r.Owner, ""),
		EncodeTemplate(r.Code, "", r.Orbit),
		r.Code,
	}

	out := make([]string, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for _, c := range all {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// validSegment reports whether s can be placed into a token slot.
func validSegment(s string) bool {
	return !strings.Contains(s, TokenSeparator) && !strings.Contains(s, PartSeparator)
}
