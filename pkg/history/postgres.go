package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Migrations creates the mail_history table. Pass it to db.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// ErrSaveFailed wraps storage failures.
var ErrSaveFailed = errors.New("history: save failed")

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertRecord = `INSERT INTO mail_history (mid, template, code, owner, orbit, status, sent_at, record)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (mid) DO UPDATE SET status = EXCLUDED.status, record = EXCLUDED.record`

const deleteBefore = `DELETE FROM mail_history WHERE sent_at < $1`

// Postgres stores records in the mail_history table.
type Postgres struct {
	db Execer
}

var _ mailer.HistoryStore = (*Postgres)(nil)

// NewPostgres creates a Postgres store.
func NewPostgres(db Execer) *Postgres {
	return &Postgres{db: db}
}

// Save implements mailer.HistoryStore.
func (p *Postgres) Save(ctx context.Context, rec mailer.HistoryRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	s := summarize(rec)

	if _, err := p.db.Exec(ctx, insertRecord,
		s.MID, s.Template, s.Code, s.Owner, s.Orbit, s.Status, s.When, data,
	); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

// Prune deletes records sent before the cutoff and reports how many went.
func (p *Postgres) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, deleteBefore, before)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
