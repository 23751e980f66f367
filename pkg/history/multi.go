package history

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Multi saves every record to all stores concurrently.
type Multi []mailer.HistoryStore

// Save implements mailer.HistoryStore. Every store is attempted; failures
// are joined.
func (m Multi) Save(ctx context.Context, rec mailer.HistoryRecord) error {
	var g errgroup.Group
	errs := make([]error, len(m))
	for i, s := range m {
		g.Go(func() error {
			errs[i] = s.Save(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
