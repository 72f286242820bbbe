package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gedgraph/backend/internal/person"
)

// Fetcher fetches records for a set of ids along with nested stubs for the
// requested edges.
type Fetcher interface {
	FetchRelatives(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error)

// FetchRelatives calls f.
func (f FetcherFunc) FetchRelatives(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error) {
	return f(ctx, ids, mask)
}

// PerIDFetcher fetches a single record at a time.
type PerIDFetcher interface {
	FetchRelative(ctx context.Context, id string, mask person.EdgeMask) (person.Raw, error)
}

// Batch turns a per-id fetcher into a Fetcher. Ids are fetched concurrently,
// at most limit at a time (unlimited when limit < 1), and results keep the
// order of ids. Any failure fails the whole batch.
func Batch(f PerIDFetcher, limit int) Fetcher {
	return FetcherFunc(func(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error) {
		out := make([]person.Raw, len(ids))

		g, gctx := errgroup.WithContext(ctx)
		if limit > 0 {
			g.SetLimit(limit)
		}
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				raw, err := f.FetchRelative(gctx, id, mask)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", id, err)
				}
				out[i] = raw
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}
