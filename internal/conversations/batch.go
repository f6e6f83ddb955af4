package conversations

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunBatch applies fn to every id with at most workers running at once.
// Failures are collected rather than cancelling the batch; only the parent
// context ending stops it early, in which case ids not yet started are
// reported as failures with the context error.
func RunBatch(
	ctx context.Context,
	ids []uuid.UUID,
	workers int,
	fn func(ctx context.Context, id uuid.UUID) error,
) *ReclassifySummary {
	summary := &ReclassifySummary{
		Total:    len(ids),
		Failures: []ReclassifyFailure{},
	}

	var mu sync.Mutex
	fail := func(id uuid.UUID, err error) {
		mu.Lock()
		defer mu.Unlock()
		summary.Failures = append(summary.Failures, ReclassifyFailure{ConversationID: id, Error: err.Error()})
	}

	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			fail(id, err)
			continue
		}
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				fail(id, err)
				return nil
			}
			mu.Lock()
			summary.Reclassified++
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return summary
}
