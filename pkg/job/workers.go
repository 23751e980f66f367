package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Pruner deletes history recorded before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type saveArgs struct {
	MID    string          `json:"mid"`
	Record json.RawMessage `json:"record"`
}

func (saveArgs) Kind() string { return "postmaster:history_save" }

type pruneArgs struct{}

func (pruneArgs) Kind() string { return "postmaster:history_prune" }

type saveWorker struct {
	river.WorkerDefaults[saveArgs]
	store  mailer.HistoryStore
	logger *slog.Logger
}

func (w *saveWorker) Work(ctx context.Context, job *river.Job[saveArgs]) error {
	var rec mailer.HistoryRecord
	if err := json.Unmarshal(job.Args.Record, &rec); err != nil {
		// Retrying cannot fix a corrupt payload.
		return river.JobCancel(fmt.Errorf("%w: %v", ErrInvalidPayload, err))
	}

	if err := w.store.Save(ctx, rec); err != nil {
		w.logger.WarnContext(ctx, "history save failed",
			slog.String("mid", job.Args.MID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

type pruneWorker struct {
	river.WorkerDefaults[pruneArgs]
	pruner    Pruner
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func (w *pruneWorker) Work(ctx context.Context, _ *river.Job[pruneArgs]) error {
	cutoff := w.now().Add(-w.retention).UTC()
	n, err := w.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("job: prune history: %w", err)
	}
	w.logger.InfoContext(ctx, "history pruned",
		slog.Int64("deleted", n),
		slog.Time("before", cutoff),
	)
	return nil
}
