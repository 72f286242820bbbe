package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/merge"
	apperrors "gedgraph/backend/pkg/errors"
	"gedgraph/backend/pkg/logger"
)

// Repository mirrors crowds into Neo4j. Every person node carries the
// snapshot id of the crowd it was last saved from.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// SnapshotInfo describes one saved crowd.
type SnapshotInfo struct {
	ID     string   `json:"id"`
	Seeds  []string `json:"seeds"`
	People int      `json:"people"`
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Connect opens a driver and checks connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema creates the uniqueness constraints the mirror relies on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	queries := []string{
		`CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE`,
		`CREATE CONSTRAINT snapshot_id IF NOT EXISTS FOR (s:Snapshot) REQUIRE s.id IS UNIQUE`,
	}
	for _, q := range queries {
		if _, err := session.Run(ctx, q, nil); err != nil {
			return apperrors.NewGraphQueryFailed("ensure schema", err)
		}
	}
	return nil
}

// SaveCrowd writes every person and relationship of c in one transaction.
// Nodes are merged by id, so saving again updates in place.
func (r *Repository) SaveCrowd(ctx context.Context, c *crowd.Crowd) error {
	people := make([]map[string]interface{}, 0, c.Len())
	for _, id := range c.IDs() {
		p, _ := c.Get(id)
		people = append(people, personProps(p))
	}
	parents, spouses, siblings := crowdLinks(c)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		if _, err := tx.Run(ctx, `
			MERGE (s:Snapshot {id: $snapshot})
			SET s.seeds = $seeds,
			    s.saved_at = datetime()
		`, map[string]interface{}{
			"snapshot": c.Snapshot(),
			"seeds":    c.Seeds(),
		}); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (s:Snapshot {id: $snapshot})
			UNWIND $people AS props
			MERGE (p:Person {id: props.id})
			SET p = props,
			    p.snapshot = $snapshot,
			    p.updated_at = datetime()
			MERGE (p)-[:IN_SNAPSHOT]->(s)
		`, map[string]interface{}{
			"snapshot": c.Snapshot(),
			"people":   people,
		}); err != nil {
			return nil, fmt.Errorf("save people: %w", err)
		}

		edges := []struct {
			name  string
			query string
			links []link
		}{
			{"parents", `
				UNWIND $links AS l
				MATCH (a:Person {id: l.from}), (b:Person {id: l.to})
				MERGE (a)-[r:PARENT_OF]->(b)
				SET r += l.props`, parents},
			{"spouses", `
				UNWIND $links AS l
				MATCH (a:Person {id: l.from}), (b:Person {id: l.to})
				MERGE (a)-[r:SPOUSE_OF]->(b)
				SET r += l.props`, spouses},
			{"siblings", `
				UNWIND $links AS l
				MATCH (a:Person {id: l.from}), (b:Person {id: l.to})
				MERGE (a)-[r:SIBLING_OF]->(b)
				SET r += l.props`, siblings},
		}
		for _, e := range edges {
			if len(e.links) == 0 {
				continue
			}
			params := make([]map[string]interface{}, len(e.links))
			for i, l := range e.links {
				params[i] = l.param()
			}
			if _, err := tx.Run(ctx, e.query, map[string]interface{}{"links": params}); err != nil {
				return nil, fmt.Errorf("save %s: %w", e.name, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("save crowd", err)
	}

	r.logger.Info("Crowd mirrored to graph",
		zap.String("snapshot", c.Snapshot()),
		zap.Int("people", len(people)),
		zap.Int("parent_edges", len(parents)),
		zap.Int("spouse_edges", len(spouses)),
		zap.Int("sibling_edges", len(siblings)),
	)
	return nil
}

// LoadCrowd rebuilds the crowd saved under snapshot. People are cached
// through resolver like any other insert.
func (r *Repository) LoadCrowd(ctx context.Context, snapshot string, resolver *merge.Resolver) (*crowd.Crowd, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (s:Snapshot {id: $snapshot})
		RETURN s.seeds AS seeds
	`, map[string]interface{}{"snapshot": snapshot})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("load snapshot", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewGraphQueryFailed("load snapshot", err)
		}
		return nil, ErrSnapshotNotFound{Snapshot: snapshot}
	}

	c := crowd.New(resolver)
	c.SetSnapshot(snapshot)
	c.SetSeeds(getStringSliceFromRecord(result.Record(), "seeds"))

	result, err = session.Run(ctx, `
		MATCH (p:Person)-[:IN_SNAPSHOT]->(:Snapshot {id: $snapshot})
		RETURN properties(p) AS props
		ORDER BY p.id
	`, map[string]interface{}{"snapshot": snapshot})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("load people", err)
	}
	for result.Next(ctx) {
		p, err := restorePerson(getMapFromRecord(result.Record(), "props"))
		if err != nil {
			return nil, fmt.Errorf("load person: %w", err)
		}
		if err := c.Cache(p); err != nil {
			return nil, fmt.Errorf("load person %s: %w", p.ID, err)
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("load people", err)
	}

	result, err = session.Run(ctx, `
		MATCH (a:Person)-[:IN_SNAPSHOT]->(:Snapshot {id: $snapshot})
		MATCH (a)-[r:SPOUSE_OF]->(b:Person)
		WHERE r.marriage_date IS NOT NULL OR r.marriage_place IS NOT NULL
		RETURN a.id AS a, b.id AS b, r.marriage_date AS date, r.marriage_place AS place
	`, map[string]interface{}{"snapshot": snapshot})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("load unions", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		u := crowd.Union{
			Partners:      []string{getStringFromRecord(record, "a"), getStringFromRecord(record, "b")},
			MarriageDate:  getStringFromRecord(record, "date"),
			MarriagePlace: getStringFromRecord(record, "place"),
		}
		if err := c.PutUnion(u); err != nil {
			return nil, fmt.Errorf("load union: %w", err)
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("load unions", err)
	}

	r.logger.Info("Crowd loaded from graph",
		zap.String("snapshot", snapshot),
		zap.Int("people", c.Len()),
	)
	return c, nil
}

// ListSnapshots returns saved snapshots, most recent first.
func (r *Repository) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (s:Snapshot)
		OPTIONAL MATCH (p:Person)-[:IN_SNAPSHOT]->(s)
		RETURN s.id AS id, s.seeds AS seeds, count(p) AS people
		ORDER BY s.saved_at DESC
	`, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("list snapshots", err)
	}

	var out []SnapshotInfo
	for result.Next(ctx) {
		record := result.Record()
		info := SnapshotInfo{
			ID:    getStringFromRecord(record, "id"),
			Seeds: getStringSliceFromRecord(record, "seeds"),
		}
		if n, ok := record.Get("people"); ok {
			if count, ok := n.(int64); ok {
				info.People = int(count)
			}
		}
		out = append(out, info)
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("list snapshots", err)
	}
	return out, nil
}

// ErrSnapshotNotFound is returned when no crowd was saved under a snapshot id.
type ErrSnapshotNotFound struct {
	Snapshot string
}

func (e ErrSnapshotNotFound) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.Snapshot)
}
