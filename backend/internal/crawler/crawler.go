package crawler

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
	"gedgraph/backend/pkg/logger"
)

// Crawler expands a crowd breadth first over the remote relative graph.
type Crawler struct {
	fetcher Fetcher
	crowd   *crowd.Crowd
	logger  *zap.Logger
}

// Stats summarizes one expansion.
type Stats struct {
	Iterations int `json:"iterations"`
	Requested  int `json:"requested"`
	Fetched    int `json:"fetched"`
	CrowdSize  int `json:"crowd_size"`
}

// New creates a crawler filling c.
func New(fetcher Fetcher, c *crowd.Crowd) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		crowd:   c,
		logger:  logger.Get(),
	}
}

// Expand fetches seeds and then up to radius-1 further rings of relatives
// reachable through mask. Each ring is one batched fetch; the crawl stops
// early once no unvisited ids remain. An empty mask fetches only the seeds.
func (cr *Crawler) Expand(ctx context.Context, seeds []string, radius int, mask person.EdgeMask) (*Stats, error) {
	seeds = normalizeIDs(seeds)
	if len(seeds) == 0 {
		return nil, apperrors.NewInvalidArgument("seeds", "at least one id required")
	}
	if radius < 1 {
		return nil, apperrors.NewInvalidArgument("radius", "must be at least 1")
	}

	stats := &Stats{}
	visited := make(map[string]bool)
	frontier := seeds

	for stats.Iterations < radius && len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewContextCancelled("crawl", err)
		}

		raws, err := cr.fetcher.FetchRelatives(ctx, frontier, mask)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.NewContextCancelled("crawl", err)
			}
			return nil, apperrors.NewFetchFailed("fetch relatives", frontier, err)
		}
		stats.Iterations++
		stats.Requested += len(frontier)
		stats.Fetched += len(raws)

		for _, id := range frontier {
			visited[id] = true
		}
		for i := range raws {
			visited[raws[i].ID] = true
		}

		discovered := newIDSet()
		for i := range raws {
			if err := cr.cacheTree(&raws[i], mask, discovered); err != nil {
				return nil, err
			}
		}

		frontier = discovered.without(visited)
		cr.logger.Debug("Crawl ring done",
			zap.Int("iteration", stats.Iterations),
			zap.Int("records", len(raws)),
			zap.Int("next_frontier", len(frontier)),
		)
	}

	// Stored people only ever reference each other by id.
	cr.crowd.Each(func(p *person.Person) {
		p.CollapseRelations()
	})
	cr.crowd.SetSeeds(seeds)

	stats.CrowdSize = cr.crowd.Len()
	cr.logger.Info("Crawl finished",
		zap.Strings("seeds", seeds),
		zap.Int("radius", radius),
		zap.Stringer("edges", mask),
		zap.Int("iterations", stats.Iterations),
		zap.Int("crowd_size", stats.CrowdSize),
	)
	return stats, nil
}

// cacheTree caches raw and every stub nested under it. Ids reached through
// edges in mask are collected into discovered.
func (cr *Crawler) cacheTree(raw *person.Raw, mask person.EdgeMask, discovered *idSet) error {
	if _, err := cr.crowd.CacheRaw(*raw); err != nil {
		return err
	}
	for _, edge := range person.AllEdges.Edges() {
		stubs := raw.Nested(edge)
		for i := range stubs {
			if strings.TrimSpace(stubs[i].ID) == "" {
				continue
			}
			if mask.Has(edge) {
				discovered.add(stubs[i].ID)
			}
			if err := cr.cacheTree(&stubs[i], mask, discovered); err != nil {
				return err
			}
		}
	}
	return nil
}

type idSet struct {
	order []string
	seen  map[string]bool
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]bool)}
}

func (s *idSet) add(id string) {
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.order = append(s.order, id)
}

func (s *idSet) without(skip map[string]bool) []string {
	var out []string
	for _, id := range s.order {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}

func normalizeIDs(ids []string) []string {
	set := newIDSet()
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set.add(id)
		}
	}
	return set.order
}
