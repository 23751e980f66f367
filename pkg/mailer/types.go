package mailer

import (
	"encoding/json"
	"fmt"
)

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Addresses is a recipient list. In JSON it accepts either a single
// string or an array of strings.
type Addresses []string

func (a *Addresses) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*a = nil
		} else {
			*a = Addresses{one}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("addresses: expected string or array of strings: %w", err)
	}
	*a = many
	return nil
}

// Email is a composed message ready for a Sender.
type Email struct {
	Locals    map[string]any    // Template data handed to the composer
	Headers   map[string]string // Custom headers
	Tags      Tags              // Provider-specific tags/categories
	MessageID string            // Generated message id, independent of provider ids
	Template  string            // Template token the message was rendered from
	Subject   string            // Email subject
	HTML      string            // HTML body content
	Text      string            // Plain text alternative
	From      string            // Override default sender (if provider allows)
	ReplyTo   string            // Reply-to address
	To        []string          // Recipients (at least one required)
	CC        []string          // Carbon copy recipients
	BCC       []string          // Blind carbon copy recipients
}

// Envelope is the message header block the composer sees.
type Envelope struct {
	MessageID string   `json:"messageId"`
	Subject   string   `json:"subject"`
	From      string   `json:"from"`
	To        []string `json:"to"`
}
