// Package smtp delivers mail over plain SMTP, one transaction per
// primary recipient.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"mime"
	"net/smtp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

var (
	// ErrHostPortRequired is returned when Host or Port is missing.
	ErrHostPortRequired = errors.New("smtp: host and port are required")
	// ErrNoSender is returned when neither the message nor the config has a sender.
	ErrNoSender = errors.New("smtp: no sender provided")
)

// StatusOK is the SMTP reply code for an accepted message.
const StatusOK = 250

// SendFunc has the signature of net/smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender implements mailer.Sender over net/smtp.
type Sender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail SendFunc
}

// New creates an SMTP sender.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Sender{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:     cfg.Host,
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// WithSendFunc replaces the delivery function, for tests and custom dialers.
func (s *Sender) WithSendFunc(fn SendFunc) *Sender {
	s.sendMail = fn
	return s
}

// Delivery is the outcome for one primary recipient.
type Delivery struct {
	email     *mailer.Email
	Recipient string `json:"recipient"`
	ID        string `json:"messageId"`
	Code      int    `json:"statusCode"`
}

// StatusCode implements mailer.StatusCoder.
func (d Delivery) StatusCode() int { return d.Code }

// MessageID implements mailer.MessageIDer.
func (d Delivery) MessageID() string { return d.ID }

// OriginalMessage implements mailer.OriginalMessager.
func (d Delivery) OriginalMessage() *mailer.Email { return d.email }

// Send implements mailer.Sender and returns one Delivery per To address.
// CC and BCC recipients ride along with the first transaction.
// Delivery stops at the first failure.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (any, error) {
	if len(email.To) == 0 {
		return nil, mailer.ErrNoRecipient
	}

	from := email.From
	if from == "" {
		from = s.from
	}
	if from == "" {
		return nil, ErrNoSender
	}

	deliveries := make([]Delivery, 0, len(email.To))
	for i, to := range email.To {
		if err := ctx.Err(); err != nil {
			return deliveries, err
		}

		rcpt := []string{to}
		var cc []string
		if i == 0 {
			cc = email.CC
			rcpt = append(rcpt, email.CC...)
			rcpt = append(rcpt, email.BCC...)
		}

		id := fmt.Sprintf("<%s.%d@%s>", email.MessageID, i, s.host)
		raw := s.build(email, from, to, cc, id)

		if err := s.sendMail(s.addr, s.auth, envelopeAddress(from), addressesOnly(rcpt), raw); err != nil {
			return deliveries, fmt.Errorf("smtp: deliver to %s: %w", to, err)
		}
		deliveries = append(deliveries, Delivery{email: email, Recipient: to, ID: id, Code: StatusOK})
	}

	return deliveries, nil
}

func (s *Sender) build(email *mailer.Email, from, to string, cc []string, id string) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header("From", from)
	header("To", to)
	if len(cc) > 0 {
		header("Cc", strings.Join(cc, ", "))
	}
	if email.ReplyTo != "" {
		header("Reply-To", email.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("Message-Id", id)
	header("MIME-Version", "1.0")
	for _, k := range slices.Sorted(maps.Keys(email.Headers)) {
		header(k, email.Headers[k])
	}

	body, contentType := multipart(email.HTML, email.Text)
	header("Content-Type", contentType)
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func multipart(html, text string) (body, contentType string) {
	switch {
	case html != "" && text != "":
		boundary := "postmaster-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		var sb strings.Builder
		fmt.Fprintf(&sb, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, text)
		fmt.Fprintf(&sb, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, html)
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), "multipart/alternative; boundary=" + boundary
	case html != "":
		return html, "text/html; charset=UTF-8"
	default:
		return text, "text/plain; charset=UTF-8"
	}
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(s string) string {
	if i := strings.LastIndexByte(s, '<'); i >= 0 {
		if j := strings.IndexByte(s[i:], '>'); j > 0 {
			return s[i+1 : i+j]
		}
	}
	return strings.TrimSpace(s)
}

func addressesOnly(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = envelopeAddress(s)
	}
	return out
}
