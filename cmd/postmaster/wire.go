package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/postmaster/internal/config"
	"github.com/dmitrymomot/postmaster/internal/metrics"
	"github.com/dmitrymomot/postmaster/pkg/cache"
	"github.com/dmitrymomot/postmaster/pkg/db"
	"github.com/dmitrymomot/postmaster/pkg/health"
	"github.com/dmitrymomot/postmaster/pkg/history"
	"github.com/dmitrymomot/postmaster/pkg/job"
	"github.com/dmitrymomot/postmaster/pkg/mailer"
	"github.com/dmitrymomot/postmaster/pkg/mailer/markdown"
	"github.com/dmitrymomot/postmaster/pkg/mailer/natshook"
	"github.com/dmitrymomot/postmaster/pkg/mailer/preview"
	"github.com/dmitrymomot/postmaster/pkg/mailer/resend"
	"github.com/dmitrymomot/postmaster/pkg/mailer/smtp"
	"github.com/dmitrymomot/postmaster/pkg/redis"
)

// deps holds the external connections; any of them may be nil.
type deps struct {
	pool  *pgxpool.Pool
	redis goredis.UniversalClient
	nats  *nats.Conn
	sub   *nats.Subscription
	jobs  *job.Manager
	local *cache.Memory
}

func connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*deps, error) {
	d := &deps{}

	if cfg.DB.Enabled() {
		pool, err := db.Connect(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		d.pool = pool
	}

	if cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, cfg.Redis, log)
		if err != nil {
			d.close(log)
			return nil, err
		}
		d.redis = client
	}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("postmaster"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("nats disconnected", slog.Any("error", err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
			}),
		)
		if err != nil {
			d.close(log)
			return nil, fmt.Errorf("nats: connect: %w", err)
		}
		d.nats = nc
	}

	return d, nil
}

func (d *deps) checks() health.Checks {
	checks := health.Checks{}
	if d.pool != nil {
		checks["postgres"] = db.Healthcheck(d.pool)
	}
	if d.redis != nil {
		checks["redis"] = redis.Healthcheck(d.redis)
	}
	if d.nats != nil {
		nc := d.nats
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	if d.jobs != nil {
		checks["jobs"] = job.Healthcheck(d.jobs)
	}
	return checks
}

func (d *deps) close(log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if d.sub != nil {
		_ = d.sub.Drain()
	}
	if d.nats != nil {
		if err := d.nats.Drain(); err != nil {
			log.Warn("nats drain failed", slog.Any("error", err))
		}
	}
	if d.local != nil {
		_ = d.local.Close()
	}
	if d.redis != nil {
		if err := redis.Shutdown(d.redis)(ctx); err != nil {
			log.Warn("redis shutdown failed", slog.Any("error", err))
		}
	}
	if d.pool != nil {
		_ = db.Shutdown(d.pool)(ctx)
	}
}

// buildSender picks the transport. Sandboxed configs never reach a provider.
func buildSender(cfg *config.Config, m *metrics.Metrics) (mailer.Sender, error) {
	var (
		sender mailer.Sender
		name   string
	)
	switch {
	case cfg.Sandboxed():
		sender, name = mailer.NewJSONTransport(), "sandbox"
	case cfg.Email.Transport == config.TransportSMTP:
		s, err := smtp.New(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		sender, name = s, config.TransportSMTP
	default:
		s, err := resend.New(cfg.Resend)
		if err != nil {
			return nil, err
		}
		sender, name = s, config.TransportResend
	}
	sender = m.Sender(sender, name)

	if cfg.Email.Preview && cfg.Preview.Enabled() {
		sink, err := buildPreviewSink(cfg.Preview)
		if err != nil {
			return nil, err
		}
		sender = mailer.NewPreviewSender(sender, sink)
	}
	return sender, nil
}

func buildPreviewSink(cfg preview.Config) (mailer.PreviewSink, error) {
	if cfg.Dir != "" {
		return preview.NewDirSink(cfg.Dir)
	}
	return preview.NewS3Sink(cfg)
}

// buildHook picks the render hook: remote over NATS, local markdown, or the
// built-in fallback when neither is configured.
func buildHook(cfg *config.Config, d *deps, m *metrics.Metrics, log *slog.Logger) (mailer.RenderHook, error) {
	var hook mailer.RenderHook = mailer.DefaultHook{}

	var local mailer.RenderHook
	if cfg.Email.Templates != "" {
		local = markdown.NewHook(os.DirFS(cfg.Email.Templates), cfg.Markdown)
	}

	switch {
	case d.nats != nil && cfg.Email.ServeRender:
		sub, err := natshook.Serve(d.nats, cfg.NATS.Subject, cfg.Email.RenderQueue, local, log)
		if err != nil {
			return nil, err
		}
		d.sub = sub
		hook = local
	case d.nats != nil:
		client, err := natshook.NewClient(d.nats, cfg.NATS)
		if err != nil {
			return nil, err
		}
		hook = client
	case local != nil:
		hook = local
	}

	if cfg.Cache.Enabled {
		hook = cache.NewHook(hook, renderStore(cfg.Cache, d), cfg.Cache.TTL, log)
	}
	return m.Hook(hook), nil
}

func renderStore(cfg cache.Config, d *deps) cache.Store {
	if d.redis != nil {
		return cache.NewRedis(d.redis, cfg.Prefix, cfg.TTL)
	}
	d.local = cache.NewMemory(cfg.TTL, cfg.MaxEntries, time.Minute)
	return d.local
}

// buildHistory assembles the history stores. It returns nil when nothing
// is configured, which leaves recording off.
func buildHistory(ctx context.Context, cfg *config.Config, d *deps, reg prometheus.Registerer, log *slog.Logger) (mailer.HistoryStore, error) {
	col := history.NewCollectors(reg)
	var (
		stores mailer.HistoryStore
		multi  history.Multi
		pg     *history.Postgres
	)

	if d.pool != nil {
		if cfg.DB.Migrate {
			migrations, err := fs.Sub(history.Migrations, "migrations")
			if err != nil {
				return nil, err
			}
			if err := db.Migrate(ctx, d.pool, migrations, ".", cfg.DB.MigrationsTable, log); err != nil {
				return nil, err
			}
		}
		pg = history.NewPostgres(d.pool)
		multi = append(multi, col.Instrument(pg, "postgres"))
	}
	if d.redis != nil {
		multi = append(multi, col.Instrument(history.NewRedis(d.redis, cfg.Stream), "redis"))
	}

	switch len(multi) {
	case 0:
		return nil, nil
	case 1:
		stores = multi[0]
	default:
		stores = multi
	}

	if !cfg.Jobs.Enabled {
		return stores, nil
	}

	if cfg.Jobs.Migrate {
		if err := job.Migrate(ctx, d.pool, log); err != nil {
			return nil, err
		}
	}
	var pruner job.Pruner
	if pg != nil {
		pruner = pg
	}
	mgr, err := job.NewManager(d.pool, stores, pruner, cfg.Jobs, log)
	if err != nil {
		return nil, err
	}
	d.jobs = mgr
	return mgr, nil
}

// assets returns the stylesheet file system, or nil when unset.
func assets(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}
