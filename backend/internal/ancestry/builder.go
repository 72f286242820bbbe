package ancestry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
	"gedgraph/backend/pkg/logger"
)

// Fetcher returns a flat list of ancestor records for id, up to depth
// generations, each carrying its own father and mother ids.
type Fetcher interface {
	FetchAncestors(ctx context.Context, id string, depth int) ([]person.Raw, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id string, depth int) ([]person.Raw, error)

// FetchAncestors calls f.
func (f FetcherFunc) FetchAncestors(ctx context.Context, id string, depth int) ([]person.Raw, error) {
	return f(ctx, id, depth)
}

// Builder places fetched ancestors into an Ahnentafel tree. Every fetched
// record is also cached into the crowd.
type Builder struct {
	fetcher Fetcher
	crowd   *crowd.Crowd
	logger  *zap.Logger
}

// NewBuilder creates a builder caching into c.
func NewBuilder(fetcher Fetcher, c *crowd.Crowd) *Builder {
	return &Builder{
		fetcher: fetcher,
		crowd:   c,
		logger:  logger.Get(),
	}
}

// Build fetches the ancestors of subjectID and fills the tree level by level.
func (b *Builder) Build(ctx context.Context, subjectID string, depth int) (*Tree, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, apperrors.NewInvalidArgument("subject", "id required")
	}
	if depth < 1 {
		return nil, apperrors.NewInvalidArgument("depth", "must be at least 1")
	}

	raws, err := b.fetcher.FetchAncestors(ctx, subjectID, depth)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewContextCancelled("build ancestors", err)
		}
		return nil, apperrors.NewFetchFailed("fetch ancestors", []string{subjectID}, err)
	}

	lookup := make(map[string]*person.Person, len(raws))
	parents := make(map[string][2]string, len(raws))
	for _, raw := range raws {
		fetched, err := person.FromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("ancestor record: %w", err)
		}
		if err := b.crowd.Cache(fetched); err != nil {
			return nil, err
		}
		stored, _ := b.crowd.Get(fetched.ID)
		lookup[fetched.ID] = stored
		// Parent links come from the flat list, not from whatever the
		// crowd already held.
		parents[fetched.ID] = [2]string{fetched.Father, fetched.Mother}
	}

	tree := &Tree{}
	subject, ok := lookup[subjectID]
	if !ok {
		if known, found := b.crowd.Get(subjectID); found {
			subject = known
			parents[subjectID] = [2]string{known.Father, known.Mother}
		} else {
			subject, _ = person.New(person.Person{ID: subjectID})
		}
	}
	tree.set(1, subject)

	for pass, n := 0, 1; pass < depth; pass, n = pass+1, n*2 {
		filled := false
		for m := n; m < 2*n; m++ {
			p := tree.At(m)
			if p == nil {
				continue
			}
			link := parents[p.ID]
			if father, ok := lookup[link[0]]; ok {
				tree.set(2*m, father)
				filled = true
			}
			if mother, ok := lookup[link[1]]; ok {
				tree.set(2*m+1, mother)
				filled = true
			}
		}
		if !filled {
			break
		}
	}

	b.logger.Info("Ancestor tree built",
		zap.String("subject_id", subjectID),
		zap.Int("depth", depth),
		zap.Int("fetched", len(raws)),
		zap.Int("filled", tree.Len()),
		zap.Int("last", tree.Last()),
	)
	return tree, nil
}
