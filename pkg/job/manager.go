package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Config configures the history queue.
type Config struct {
	Enabled     bool `env:"JOBS_ENABLED" envDefault:"false"`
	MaxWorkers  int  `env:"JOBS_MAX_WORKERS" envDefault:"10"`
	MaxAttempts int  `env:"JOBS_MAX_ATTEMPTS" envDefault:"10"`
	// Migrate applies River's own schema on startup.
	Migrate bool `env:"JOBS_MIGRATE" envDefault:"true"`

	// Retention of zero disables pruning.
	Retention         time.Duration `env:"HISTORY_RETENTION" envDefault:"2160h"`
	RetentionSchedule string        `env:"HISTORY_RETENTION_SCHEDULE" envDefault:"0 3 * * *"`
}

// Manager queues history records and runs the workers that persist them.
type Manager struct {
	pool        *pgxpool.Pool
	client      *river.Client[pgx.Tx]
	logger      *slog.Logger
	maxAttempts int

	mu      sync.Mutex
	started bool
}

var _ mailer.HistoryStore = (*Manager)(nil)

// NewManager creates the River client. pruner may be nil.
func NewManager(pool *pgxpool.Pool, store mailer.HistoryStore, pruner Pruner, cfg Config, logger *slog.Logger) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &saveWorker{store: store, logger: logger})

	var periodic []*river.PeriodicJob
	if pruner != nil && cfg.Retention > 0 {
		schedule, err := parseSchedule(cfg.RetentionSchedule)
		if err != nil {
			return nil, err
		}
		river.AddWorker(workers, &pruneWorker{
			pruner:    pruner,
			retention: cfg.Retention,
			now:       time.Now,
			logger:    logger,
		})
		periodic = append(periodic, river.NewPeriodicJob(
			schedule,
			func() (river.JobArgs, *river.InsertOpts) { return pruneArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: max(cfg.MaxWorkers, 1)},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		pool:        pool,
		client:      client,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

// Migrate applies River's schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("job: create migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("job: migrate: %w", err)
	}
	return nil
}

// Save implements mailer.HistoryStore by enqueueing the record.
func (m *Manager) Save(ctx context.Context, rec mailer.HistoryRecord) error {
	args, err := newSaveArgs(rec)
	if err != nil {
		return err
	}
	opts := &river.InsertOpts{}
	if m.maxAttempts > 0 {
		opts.MaxAttempts = m.maxAttempts
	}
	if _, err := m.client.Insert(ctx, args, opts); err != nil {
		return fmt.Errorf("job: enqueue history: %w", err)
	}
	return nil
}

func newSaveArgs(rec mailer.HistoryRecord) (saveArgs, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return saveArgs{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	mid, _ := rec["mid"].(string)
	return saveArgs{MID: mid, Record: data}, nil
}

// Start begins processing queued records.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	m.started = true
	m.logger.Info("history queue started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	m.started = false
	m.logger.Info("history queue stopped")
	return nil
}

// Healthcheck reports whether the manager runs and its database answers.
func Healthcheck(m *Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		if m == nil {
			return ErrHealthcheckFailed
		}
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if !started {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}
