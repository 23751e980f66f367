// Command postmaster runs the mail dispatch API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/postmaster/internal/config"
	"github.com/dmitrymomot/postmaster/internal/metrics"
	"github.com/dmitrymomot/postmaster/internal/server"
	"github.com/dmitrymomot/postmaster/pkg/logger"
	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "postmaster:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, flush := logger.NewWithSentry(cfg.Log, cfg.Sentry, logger.MailExtractors()...)
	defer flush()
	log = log.With(slog.String("service", "postmaster"), slog.String("env", cfg.Env))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	sender, err := buildSender(cfg, m)
	if err != nil {
		return err
	}
	hook, err := buildHook(cfg, deps, m, log)
	if err != nil {
		return err
	}
	store, err := buildHistory(ctx, cfg, deps, reg, log)
	if err != nil {
		return err
	}

	opts := []mailer.Option{
		mailer.WithRenderHook(hook),
		mailer.WithLogger(log),
		mailer.WithAugment(augment(cfg.Env)),
	}
	if cfg.Email.InlineCSS {
		opts = append(opts, mailer.WithInliner(mailer.NewCSSInliner(assets(cfg.Email.AssetsDir))))
	}
	if store != nil {
		opts = append(opts, mailer.WithHistoryStore(store))
	}
	ml := mailer.New(sender, cfg.Mailer, opts...)

	srv, err := server.New(ml,
		server.WithLogger(log),
		server.WithMetrics(m, reg),
		server.WithReadinessChecks(deps.checks()),
		server.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		server.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		server.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTP.Addr)
	})
	if deps.jobs != nil {
		if err := deps.jobs.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return deps.jobs.Stop(stopCtx)
		})
	}

	err = g.Wait()

	// History writes outlive their requests; give them a bounded drain.
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if werr := ml.Wait(drainCtx); werr != nil {
		log.Warn("history drain incomplete", slog.Any("error", werr))
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// augment adds request details captured by the HTTP layer to each record.
func augment(env string) mailer.AugmentFunc {
	return func(in mailer.HistoryInput) map[string]any {
		out := map[string]any{"env": env}
		for _, key := range []string{"request_id", "remote_addr", "user_agent"} {
			if v, ok := in.Meta[key]; ok {
				out[key] = v
			}
		}
		return out
	}
}
