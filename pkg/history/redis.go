package history

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// StreamAdder is the part of redis.Cmdable the stream store uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisConfig configures the stream store.
type RedisConfig struct {
	Stream string `env:"HISTORY_REDIS_STREAM" envDefault:"postmaster:history"`
	// MaxLen caps the stream approximately. Zero keeps everything.
	MaxLen int64 `env:"HISTORY_REDIS_MAXLEN" envDefault:"100000"`
}

// Redis appends records to a Redis stream.
type Redis struct {
	client StreamAdder
	cfg    RedisConfig
}

var _ mailer.HistoryStore = (*Redis)(nil)

// NewRedis creates a stream store.
func NewRedis(client StreamAdder, cfg RedisConfig) *Redis {
	if cfg.Stream == "" {
		cfg.Stream = "postmaster:history"
	}
	return &Redis{client: client, cfg: cfg}
}

// Save implements mailer.HistoryStore.
func (r *Redis) Save(ctx context.Context, rec mailer.HistoryRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	s := summarize(rec)

	args := &redis.XAddArgs{
		Stream: r.cfg.Stream,
		Values: map[string]any{
			"mid":      s.MID,
			"template": s.Template,
			"status":   strconv.Itoa(s.Status),
			"record":   string(data),
		},
	}
	if r.cfg.MaxLen > 0 {
		args.MaxLen = r.cfg.MaxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}
