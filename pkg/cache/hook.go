package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Hook is a caching mailer.RenderHook.
type Hook struct {
	next   mailer.RenderHook
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

var _ mailer.RenderHook = (*Hook)(nil)

// NewHook wraps next. A nil logger discards store errors.
func NewHook(next mailer.RenderHook, store Store, ttl time.Duration, logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hook{next: next, store: store, ttl: ttl, logger: logger}
}

// Render serves req from the store or asks the wrapped hook. Store
// failures degrade to a direct call.
func (h *Hook) Render(ctx context.Context, req mailer.RenderRequest) (*mailer.RenderResult, error) {
	key, err := requestKey(req)
	if err != nil {
		return h.next.Render(ctx, req)
	}

	if data, err := h.store.Get(ctx, key); err == nil {
		var res mailer.RenderResult
		if err := json.Unmarshal(data, &res); err == nil {
			return &res, nil
		}
		_ = h.store.Delete(ctx, key)
	} else if !errors.Is(err, ErrNotFound) {
		h.logger.WarnContext(ctx, "render cache read failed", slog.Any("error", err))
	}

	v, err, _ := h.group.Do(key, func() (any, error) {
		res, err := h.next.Render(ctx, req)
		if err != nil || res == nil || res.Failed {
			return res, err
		}
		if data, err := json.Marshal(res); err == nil {
			if err := h.store.Set(ctx, key, data, h.ttl); err != nil {
				h.logger.WarnContext(ctx, "render cache write failed", slog.Any("error", err))
			}
		}
		return res, nil
	})
	res, _ := v.(*mailer.RenderResult)
	return res, err
}

// requestKey digests every field that can change the hook's answer.
func requestKey(req mailer.RenderRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("cache: encode request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
