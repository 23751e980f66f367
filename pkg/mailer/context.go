package mailer

import "context"

type (
	metaKey      struct{}
	messageIDKey struct{}
	templateKey  struct{}
)

// WithMeta attaches caller metadata that is handed to the history augment function.
func WithMeta(ctx context.Context, meta map[string]any) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns metadata stored by WithMeta.
func MetaFromContext(ctx context.Context) map[string]any {
	meta, _ := ctx.Value(metaKey{}).(map[string]any)
	return meta
}

// MessageIDFromContext returns the message id of the send in progress.
func MessageIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(messageIDKey{}).(string)
	return id, ok && id != ""
}

// TemplateFromContext returns the template token of the send in progress.
func TemplateFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(templateKey{}).(string)
	return t, ok && t != ""
}

func withSend(ctx context.Context, mid, template string) context.Context {
	ctx = context.WithValue(ctx, messageIDKey{}, mid)
	return context.WithValue(ctx, templateKey{}, template)
}
