package mailer

import (
	"context"
	"encoding/json"
)

// Sender defines the minimal interface that email transports must implement.
// It accepts a fully composed Email and handles the actual delivery.
//
// The returned outcome is transport specific: a single value, a slice with
// one element per recipient, or a value implementing json.Marshaler.
// See NormalizeOutcome for how outcomes are interpreted.
type Sender interface {
	Send(ctx context.Context, email *Email) (any, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) (any, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, email *Email) (any, error) {
	return f(ctx, email)
}

// JSONTransport is a sandbox Sender: nothing leaves the process, the composed
// message is returned as the outcome.
type JSONTransport struct{}

// NewJSONTransport creates a sandbox transport.
func NewJSONTransport() *JSONTransport {
	return &JSONTransport{}
}

// Send implements Sender.
func (*JSONTransport) Send(ctx context.Context, email *Email) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewPreview(email), nil
}

// Preview is the JSONTransport outcome and the document preview sinks store.
type Preview struct {
	email *Email
}

// NewPreview wraps a composed message.
func NewPreview(email *Email) *Preview {
	return &Preview{email: email}
}

// MessageID implements MessageIDer.
func (p *Preview) MessageID() string {
	return p.email.MessageID
}

// OriginalMessage implements OriginalMessager.
func (p *Preview) OriginalMessage() *Email {
	return p.email
}

// MarshalJSON renders the composed message.
func (p *Preview) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MessageID string            `json:"messageId"`
		Envelope  Envelope          `json:"envelope"`
		Headers   map[string]string `json:"headers,omitempty"`
		CC        []string          `json:"cc,omitempty"`
		BCC       []string          `json:"bcc,omitempty"`
		ReplyTo   string            `json:"replyTo,omitempty"`
		HTML      string            `json:"html"`
		Text      string            `json:"text"`
	}{
		MessageID: p.email.MessageID,
		Envelope: Envelope{
			MessageID: p.email.MessageID,
			Subject:   p.email.Subject,
			From:      p.email.From,
			To:        p.email.To,
		},
		Headers: p.email.Headers,
		CC:      p.email.CC,
		BCC:     p.email.BCC,
		ReplyTo: p.email.ReplyTo,
		HTML:    p.email.HTML,
		Text:    p.email.Text,
	})
}

// PreviewSink stores a copy of composed messages for inspection.
type PreviewSink interface {
	Store(ctx context.Context, email *Email) error
}

// PreviewSender writes every message to a sink before handing it to the
// wrapped Sender. Sink failures abort the send.
type PreviewSender struct {
	next Sender
	sink PreviewSink
}

// NewPreviewSender wraps next with a preview sink.
func NewPreviewSender(next Sender, sink PreviewSink) *PreviewSender {
	return &PreviewSender{next: next, sink: sink}
}

// Send implements Sender.
func (s *PreviewSender) Send(ctx context.Context, email *Email) (any, error) {
	if err := s.sink.Store(ctx, email); err != nil {
		return nil, err
	}
	return s.next.Send(ctx, email)
}
