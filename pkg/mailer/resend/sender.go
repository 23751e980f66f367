package resend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// ErrNoAPIKey is returned by New when the API key is not configured.
var ErrNoAPIKey = errors.New("resend: api key is required")

// Emails is the slice of the Resend API the sender uses.
type Emails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// HeaderMessageID carries the generated message id to the provider so
// webhooks can be correlated with history records.
const HeaderMessageID = "X-Postmaster-Message-Id"

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	emails Emails
	config Config
}

// New creates a new Resend sender.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewWithClient(resend.NewClient(cfg.APIKey).Emails, cfg), nil
}

// NewWithClient creates a sender over an existing Emails implementation.
func NewWithClient(emails Emails, cfg Config) *Sender {
	return &Sender{emails: emails, config: cfg}
}

// Receipt is the outcome of an accepted Resend request.
type Receipt struct {
	email *mailer.Email
	id    string
}

// StatusCode implements mailer.StatusCoder. Resend answers 200 on acceptance.
func (r *Receipt) StatusCode() int { return http.StatusOK }

// MessageID implements mailer.MessageIDer and returns the Resend email id.
func (r *Receipt) MessageID() string { return r.id }

// OriginalMessage implements mailer.OriginalMessager.
func (r *Receipt) OriginalMessage() *mailer.Email { return r.email }

// MarshalJSON implements json.Marshaler.
func (r *Receipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string `json:"id"`
		MessageID  string `json:"messageId"`
		StatusCode int    `json:"statusCode"`
	}{
		ID:         r.id,
		MessageID:  r.email.MessageID,
		StatusCode: r.StatusCode(),
	})
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (any, error) {
	from := email.From
	if from == "" {
		if s.config.SenderName != "" {
			from = fmt.Sprintf("%s <%s>", s.config.SenderName, s.config.SenderEmail)
		} else {
			from = s.config.SenderEmail
		}
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Cc:      email.CC,
		Bcc:     email.BCC,
		Headers: email.Headers,
	}

	// Convert tags
	if len(email.Tags) > 0 {
		req.Tags = s.convertTags(email.Tags)
	}

	if email.MessageID != "" {
		headers := make(map[string]string, len(req.Headers)+1)
		maps.Copy(headers, req.Headers)
		headers[HeaderMessageID] = email.MessageID
		req.Headers = headers
	}

	resp, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resend: failed to send email: %w", err)
	}

	return &Receipt{email: email, id: resp.Id}, nil
}

func (s *Sender) convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{
			Name:  name,
			Value: tagValue(value),
		})
	}
	return result
}

// tagValue converts any value to a string for Resend's tag API.
// Presence-only tags (struct{}{}) become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true" // presence-only tag
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
