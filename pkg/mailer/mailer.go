package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Mailer renders templated messages through a render hook, sends them and
// records delivery history.
type Mailer struct {
	sender   Sender
	delegate *Delegate
	composer *Composer
	history  *historyRecorder
	logger   *slog.Logger
	newID    func() string
	config   Config
}

// Option configures a Mailer.
type Option func(*options)

type options struct {
	hook    RenderHook
	inliner Inliner
	store   HistoryStore
	augment AugmentFunc
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// WithRenderHook sets the render hook. Defaults to DefaultHook.
func WithRenderHook(h RenderHook) Option {
	return func(o *options) {
		o.hook = h
	}
}

// WithInliner sets the HTML post-processor. Defaults to NopInliner.
func WithInliner(i Inliner) Option {
	return func(o *options) {
		o.inliner = i
	}
}

// WithHistoryStore enables history persistence.
func WithHistoryStore(s HistoryStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithAugment sets the function that adds fields to history records.
func WithAugment(fn AugmentFunc) Option {
	return func(o *options) {
		o.augment = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New creates a Mailer. The Mailer is immutable and safe for concurrent use.
func New(sender Sender, cfg Config, opts ...Option) *Mailer {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}

	delegate := NewDelegate(o.hook, o.inliner)

	return &Mailer{
		sender:   sender,
		delegate: delegate,
		composer: NewComposer(delegate, cfg.Parts, cfg.TextFromHTML),
		history: &historyRecorder{
			store:   o.store,
			augment: o.augment,
			logger:  o.logger,
			now:     o.now,
			global:  cfg.History,
		},
		logger: o.logger,
		newID:  o.newID,
		config: cfg,
	}
}

// SendRequest describes one templated message.
type SendRequest struct {
	Content map[string]any `json:"content,omitempty"`
	Merge   map[string]any `json:"merge,omitempty"`
	History *bool          `json:"history,omitempty"`
	Code    string         `json:"code" validate:"required,excludesall=~/"`
	Owner   string         `json:"owner,omitempty" validate:"excludesall=~/"`
	Orbit   string         `json:"orbit,omitempty" validate:"excludesall=~/"`
	From    string         `json:"from,omitempty"`
	Subject string         `json:"subject,omitempty"`
	To      Addresses      `json:"to" validate:"required,min=1,dive,required"`
}

// Validate checks the request without sending it.
func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipient
	}
	if r.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}
	for name, v := range map[string]string{"code": r.Code, "owner": r.Owner, "orbit": r.Orbit} {
		if !validSegment(v) {
			return fmt.Errorf("%w: %s must not contain %q or %q", ErrInvalidRequest, name, TokenSeparator, PartSeparator)
		}
	}
	return nil
}

// SendResponse is returned by Send.
type SendResponse struct {
	Sent     any         `json:"sent"`
	Result   any         `json:"result"`
	Template string      `json:"template"`
	MID      string      `json:"mid"`
	Msg      SendRequest `json:"msg"`
	Status   int         `json:"status"`
}

// Send renders and sends a templated message.
// Subject resolution: request subject > rendered subject part > config fallback.
//
// Send returns once the transport has answered. History is written in the
// background and its failures never reach the caller.
func (m *Mailer) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	template := EncodeTemplate(req.Code, req.Owner, req.Orbit)
	mid := m.newID()
	ctx = withSend(ctx, mid, template)

	from := req.From
	if from == "" {
		from = m.config.DefaultFrom
	}

	rendered, err := m.composer.Compose(ctx, template, req.Content, req.Merge)
	if err != nil {
		return nil, err
	}

	subject := req.Subject
	if subject == "" {
		subject = rendered.Subject
	}
	if subject == "" {
		subject = m.config.FallbackSubject
	}

	locals := make(map[string]any, len(req.Content)+len(req.Merge))
	maps.Copy(locals, req.Content)
	maps.Copy(locals, req.Merge)

	email := &Email{
		Locals:    locals,
		Tags:      Tags{"template": req.Code},
		MessageID: mid,
		Template:  template,
		Subject:   subject,
		HTML:      rendered.HTML,
		Text:      rendered.Text,
		From:      from,
		To:        req.To,
	}

	raw, err := m.sender.Send(ctx, email)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to send mail",
			slog.String("template", template),
			slog.String("mid", mid),
			slog.String("error", err.Error()),
		)
		return nil, errors.Join(ErrSendFailed, err)
	}

	out := NormalizeOutcome(raw, mid)

	m.history.record(ctx, HistoryInput{
		Msg:      req,
		Meta:     MetaFromContext(ctx),
		Template: template,
		Sent:     out.Sent,
		Result:   out.Result,
	}, mid, out.Status)

	m.logSent(ctx, email, out.Status)

	return &SendResponse{
		Msg:      req,
		Sent:     out.Sent,
		Result:   out.Result,
		Template: template,
		MID:      mid,
		Status:   out.Status,
	}, nil
}

// Render runs the configured render hook directly.
func (m *Mailer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	return m.delegate.Hook().Render(ctx, req)
}

// Wait blocks until in-flight history writes complete or ctx is done.
// Call it during shutdown.
func (m *Mailer) Wait(ctx context.Context) error {
	return m.history.wait(ctx)
}

func (m *Mailer) logSent(ctx context.Context, email *Email, status int) {
	attrs := []any{
		slog.String("template", email.Template),
		slog.String("mid", email.MessageID),
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.Int("status", status),
	}
	if m.config.LogMail {
		attrs = append(attrs,
			slog.String("html", email.HTML),
			slog.String("text", email.Text),
		)
	}
	m.logger.InfoContext(ctx, "mail sent", attrs...)
}
