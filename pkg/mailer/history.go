package mailer

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// HistoryRecord is a flat snapshot of one send attempt.
type HistoryRecord map[string]any

// HistoryStore persists history records.
type HistoryStore interface {
	Save(ctx context.Context, rec HistoryRecord) error
}

// HistoryStoreFunc adapts a function to HistoryStore.
type HistoryStoreFunc func(ctx context.Context, rec HistoryRecord) error

// Save implements HistoryStore.
func (f HistoryStoreFunc) Save(ctx context.Context, rec HistoryRecord) error {
	return f(ctx, rec)
}

// HistoryInput is handed to the augment function.
type HistoryInput struct {
	When     time.Time
	Sent     any
	Result   any
	Meta     map[string]any
	Msg      SendRequest
	Template string
}

// AugmentFunc returns extra fields merged into every history record.
type AugmentFunc func(in HistoryInput) map[string]any

// ShouldRecord decides whether a send is recorded.
// A per-request override can switch recording on when it is globally off,
// or off when it is globally on:
//
//	global  override  record
//	true    unset     yes
//	true    true      yes
//	true    false     no
//	false   unset     no
//	false   false     no
//	false   true      yes
func ShouldRecord(global bool, override *bool) bool {
	if global {
		return override == nil || *override
	}
	return override != nil && *override
}

// BuildHistoryRecord assembles the record for a completed send.
func BuildHistoryRecord(in HistoryInput, mid string, status int, augment AugmentFunc) HistoryRecord {
	rec := HistoryRecord{
		"code":     in.Msg.Code,
		"owner":    in.Msg.Owner,
		"orbit":    in.Msg.Orbit,
		"to":       []string(in.Msg.To),
		"from":     in.Msg.From,
		"subject":  in.Msg.Subject,
		"content":  in.Msg.Content,
		"merge":    in.Msg.Merge,
		"template": in.Template,
		"when":     in.When,
		"mid":      mid,
		"status":   status,
		"sent":     in.Sent,
		"result":   in.Result,
	}
	if in.Msg.History != nil {
		rec["history"] = *in.Msg.History
	}

	if augment != nil {
		maps.Copy(rec, augment(in))
	}
	return rec
}

// historyRecorder dispatches history writes without blocking the send.
type historyRecorder struct {
	store   HistoryStore
	augment AugmentFunc
	logger  *slog.Logger
	now     func() time.Time
	global  bool

	wg sync.WaitGroup
}

// record persists the send in the background. Failures are logged only.
func (h *historyRecorder) record(ctx context.Context, in HistoryInput, mid string, status int) {
	if h.store == nil || !ShouldRecord(h.global, in.Msg.History) {
		return
	}

	ctx = context.WithoutCancel(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.ErrorContext(ctx, "history store panicked",
					slog.String("mid", mid),
					slog.Any("panic", r),
				)
			}
		}()

		in.When = h.now().UTC()
		rec := BuildHistoryRecord(in, mid, status, h.augment)
		if err := h.store.Save(ctx, rec); err != nil {
			h.logger.WarnContext(ctx, "failed to save mail history",
				slog.String("mid", mid),
				slog.String("template", in.Template),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// wait blocks until in-flight writes finish or ctx is done.
func (h *historyRecorder) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
