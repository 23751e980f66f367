// Package preview stores composed messages for inspection: a JSON document
// with envelope and bodies, plus the HTML body on its own so it can be
// opened in a browser.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// ErrNoMessageID is returned for messages without an id to name files after.
var ErrNoMessageID = errors.New("preview: message id is required")

// Config selects and configures a preview sink.
type Config struct {
	// Dir enables the directory sink when set.
	Dir string `env:"PREVIEW_DIR"`
	// Bucket enables the S3 sink when set. Dir wins when both are set.
	Bucket    string `env:"PREVIEW_BUCKET"`
	Prefix    string `env:"PREVIEW_PREFIX" envDefault:"previews"`
	Region    string `env:"PREVIEW_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"PREVIEW_ENDPOINT"`
	AccessKey string `env:"PREVIEW_ACCESS_KEY"`
	SecretKey string `env:"PREVIEW_SECRET_KEY"`
	PathStyle bool   `env:"PREVIEW_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether any sink is configured.
func (c Config) Enabled() bool {
	return c.Dir != "" || c.Bucket != ""
}

// document returns the JSON preview and a safe base name for the message.
func document(email *mailer.Email) (string, []byte, error) {
	if email.MessageID == "" {
		return "", nil, ErrNoMessageID
	}
	data, err := json.MarshalIndent(mailer.NewPreview(email), "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("preview: encode: %w", err)
	}
	return sanitizeName(email.MessageID), data, nil
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// DirSink writes previews to a local directory.
type DirSink struct {
	dir string
}

var _ mailer.PreviewSink = (*DirSink)(nil)

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("preview: create %s: %w", dir, err)
	}
	return &DirSink{dir: dir}, nil
}

// Store implements mailer.PreviewSink.
func (s *DirSink) Store(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, doc, err := document(email)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(s.dir, name+".json"), doc, 0o644); err != nil {
		return fmt.Errorf("preview: write json: %w", err)
	}
	if email.HTML != "" {
		if err := os.WriteFile(filepath.Join(s.dir, name+".html"), []byte(email.HTML), 0o644); err != nil {
			return fmt.Errorf("preview: write html: %w", err)
		}
	}
	return nil
}
