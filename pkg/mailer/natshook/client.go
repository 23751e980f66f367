// Package natshook runs render hooks out of process over NATS request/reply.
//
// Requests are JSON encoded mailer.RenderRequest values. Replies are JSON
// encoded mailer.RenderResult values or the literal null.
package natshook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Header names set on every request.
const (
	HeaderMessageID = "Postmaster-Message-Id"
	HeaderTemplate  = "Postmaster-Template"
)

// ErrSubjectRequired is returned when no subject is configured.
var ErrSubjectRequired = errors.New("natshook: subject is required")

// Config configures the NATS render hook.
type Config struct {
	URL     string        `env:"NATS_URL"`
	Subject string        `env:"NATS_RENDER_SUBJECT" envDefault:"postmaster.render"`
	Timeout time.Duration `env:"NATS_RENDER_TIMEOUT" envDefault:"5s"`
}

// Requester is the part of *nats.Conn the client uses.
type Requester interface {
	RequestMsgWithContext(ctx context.Context, msg *nats.Msg) (*nats.Msg, error)
}

// Client implements mailer.RenderHook by asking a remote responder.
type Client struct {
	conn    Requester
	subject string
	timeout time.Duration
}

var _ mailer.RenderHook = (*Client)(nil)

// NewClient creates a render hook client.
func NewClient(conn Requester, cfg Config) (*Client, error) {
	if cfg.Subject == "" {
		return nil, ErrSubjectRequired
	}
	return &Client{conn: conn, subject: cfg.Subject, timeout: cfg.Timeout}, nil
}

// Render implements mailer.RenderHook.
// No responder on the subject means no hook is deployed, which yields a
// nil result so the caller treats the part as not rendered.
func (c *Client) Render(ctx context.Context, req mailer.RenderRequest) (*mailer.RenderResult, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("natshook: encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg := nats.NewMsg(c.subject)
	msg.Data = data
	if mid, ok := mailer.MessageIDFromContext(ctx); ok {
		msg.Header.Set(HeaderMessageID, mid)
	}
	msg.Header.Set(HeaderTemplate, req.Ref().Token())

	reply, err := c.conn.RequestMsgWithContext(ctx, msg)
	if errors.Is(err, nats.ErrNoResponders) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("natshook: request %s: %w", c.subject, err)
	}

	return decodeResult(reply.Data)
}

func decodeResult(data []byte) (*mailer.RenderResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var res mailer.RenderResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("natshook: decode reply: %w", err)
	}
	return &res, nil
}
