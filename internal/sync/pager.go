package sync

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Pager walks a cursor-paged source and processes each item. A failed fetch
// is fatal; a failed item is handed to OnError and the walk continues.
// Cancellation is checked between items, so a run stops within one record of
// the signal.
type Pager[T any] struct {
	// Fetch returns one page and the cursor for the next. An empty page ends
	// the run regardless of the cursor: some sources hand out a trailing
	// cursor past the last record, and following it would loop forever.
	Fetch func(ctx context.Context, cursor string) (items []T, next string, err error)

	// Process handles one item. Errors go to OnError; they never stop the
	// walk.
	Process func(ctx context.Context, item T) error

	// OnError observes per-item failures. Optional.
	OnError func(item T, err error)

	// Limiter paces item processing. Optional.
	Limiter *rate.Limiter
}

// Run walks every page until the source is exhausted or ctx is cancelled.
func (p Pager[T]) Run(ctx context.Context) error {
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "sync: run cancelled")
		}

		items, next, err := p.Fetch(ctx, cursor)
		if err != nil {
			return eris.Wrap(err, "sync: fetch page")
		}
		if len(items) == 0 {
			return nil
		}

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "sync: run cancelled")
			}
			if p.Limiter != nil {
				if err := p.Limiter.Wait(ctx); err != nil {
					return eris.Wrap(err, "sync: run cancelled")
				}
			}
			if err := p.Process(ctx, item); err != nil && p.OnError != nil {
				p.OnError(item, err)
			}
		}

		if next == "" {
			return nil
		}
		cursor = next
	}
}
