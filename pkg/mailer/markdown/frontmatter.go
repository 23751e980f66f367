package markdown

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFrontmatter is returned for unterminated or non-YAML frontmatter.
var ErrInvalidFrontmatter = errors.New("markdown: invalid frontmatter")

var fence = []byte("---")

// header is the YAML block at the top of a template file.
type header struct {
	Subject string `yaml:"subject"`
	Layout  string `yaml:"layout"`
	// Meta holds every other key and is exposed to layouts.
	Meta map[string]any `yaml:",inline"`
}

// splitFrontmatter separates the YAML header from the markdown body.
// Content without a leading fence has an empty header.
func splitFrontmatter(content []byte) (header, []byte, error) {
	var h header
	if !bytes.HasPrefix(content, fence) {
		return h, content, nil
	}

	rest := bytes.TrimLeft(content[len(fence):], "\r\n")
	end := bytes.Index(rest, fence)
	if end < 0 {
		return h, nil, fmt.Errorf("%w: closing fence not found", ErrInvalidFrontmatter)
	}

	raw := rest[:end]
	body := rest[end+len(fence):]
	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &h); err != nil {
			return h, nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}
	return h, body, nil
}
