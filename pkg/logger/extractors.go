package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

const sentryFlushTimeout = 2 * time.Second

// MessageIDExtractor adds the id of the send in progress as "mid".
func MessageIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		mid, ok := mailer.MessageIDFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("mid", mid), true
	}
}

// TemplateExtractor adds the template token of the send in progress.
func TemplateExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		tpl, ok := mailer.TemplateFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("template", tpl), true
	}
}

// RequestIDExtractor adds the chi request id.
func RequestIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := middleware.GetReqID(ctx)
		if id == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}

// MailExtractors returns every extractor the service installs.
func MailExtractors() []ContextExtractor {
	return []ContextExtractor{RequestIDExtractor(), MessageIDExtractor(), TemplateExtractor()}
}
