package natshook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Subscriber is the part of *nats.Conn Serve uses.
type Subscriber interface {
	QueueSubscribe(subject, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Serve answers render requests on subject with hook. Responders in the
// same queue group share the load. Drain or unsubscribe the returned
// subscription to stop.
func Serve(conn Subscriber, subject, queue string, hook mailer.RenderHook, logger *slog.Logger) (*nats.Subscription, error) {
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sub, err := conn.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		reply := answer(context.Background(), hook, m.Data)
		if err := m.Respond(reply); err != nil {
			logger.Warn("render reply failed",
				slog.String("template", m.Header.Get(HeaderTemplate)),
				slog.Any("error", err),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("natshook: subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// answer runs the hook and encodes its result. Hook errors become ok=false
// replies since the wire has no separate error channel.
func answer(ctx context.Context, hook mailer.RenderHook, data []byte) []byte {
	var req mailer.RenderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encode(mailer.Failure("malformed request: " + err.Error()))
	}

	res, err := hook.Render(ctx, req)
	if err != nil {
		return encode(mailer.Failure(err.Error()))
	}
	return encode(res)
}

func encode(res *mailer.RenderResult) []byte {
	if res == nil {
		return []byte("null")
	}
	data, err := json.Marshal(res)
	if err != nil {
		data, _ = json.Marshal(mailer.Failure(err.Error()))
	}
	return data
}
