package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gedgraph/backend/internal/adapter"
	"gedgraph/backend/internal/crawler"
	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/graph"
	"gedgraph/backend/internal/merge"
	"gedgraph/backend/pkg/config"
	"gedgraph/backend/pkg/logger"
)

// Open builds a session from configuration: the conflict policy, the stored
// crowd, the relative service client and, if configured, the graph mirror.
// decider may be nil, in which case conflicts not covered by the policy fail.
// The returned close function releases the graph driver.
func Open(ctx context.Context, cfg *config.Config, decider merge.Decider) (*Session, func(), error) {
	log := logger.Get()

	resolver := merge.NewResolver(decider)
	policy, err := merge.LoadPolicy(cfg.ConflictPolicyPath)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.Apply(resolver); err != nil {
		return nil, nil, err
	}

	c, err := crowd.LoadFile(cfg.StorePath, resolver)
	if err != nil {
		return nil, nil, err
	}

	client, err := adapter.NewRelativesClient(cfg.RelativesAPIURL, adapter.Options{
		Token:      cfg.RelativesAPIToken,
		Timeout:    cfg.FetchTimeout,
		MaxRetries: cfg.FetchRetries,
		CacheSize:  cfg.FetchCacheSize,
	})
	if err != nil {
		return nil, nil, err
	}

	var relatives crawler.Fetcher = client
	if cfg.FetchConcurrency > 1 {
		relatives = crawler.Batch(client, cfg.FetchConcurrency)
	}

	opts := Options{
		StorePath:           cfg.StorePath,
		SynthesizeChildless: cfg.SynthesizeChildless,
	}
	closeFn := func() {}
	if cfg.GraphEnabled() {
		driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("graph mirror: %w", err)
		}
		repo := graph.NewRepository(driver)
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		opts.Mirror = repo
		closeFn = func() {
			if err := repo.Close(); err != nil {
				log.Warn("Failed to close graph driver", zap.Error(err))
			}
		}
	}

	log.Info("Session opened",
		zap.String("store", cfg.StorePath),
		zap.Int("people", c.Len()),
		zap.Int("sticky_fields", len(policy)),
		zap.Bool("graph_mirror", opts.Mirror != nil),
	)
	return NewSession(c, relatives, client, opts), closeFn, nil
}
