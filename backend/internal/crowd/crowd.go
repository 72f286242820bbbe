package crowd

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gedgraph/backend/internal/merge"
	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
	"gedgraph/backend/pkg/logger"
)

// Crowd is the set of people known to one session, keyed by id, with a
// secondary index on simplified name keys. It only grows. Callers serialize
// access; there is no internal locking.
type Crowd struct {
	people   map[string]*person.Person
	byKey    map[string]*person.Person
	unions   map[string]*Union
	seeds    []string
	snapshot string
	resolver *merge.Resolver
	families map[string]*Family
	logger   *zap.Logger
}

// New creates an empty crowd. A nil resolver fails every genuine conflict.
func New(resolver *merge.Resolver) *Crowd {
	if resolver == nil {
		resolver = merge.NewResolver(nil)
	}
	return &Crowd{
		people:   make(map[string]*person.Person),
		byKey:    make(map[string]*person.Person),
		unions:   make(map[string]*Union),
		snapshot: uuid.New().String(),
		resolver: resolver,
		logger:   logger.Get(),
	}
}

// Cache inserts p, or merges it into the stored person with the same id.
func (c *Crowd) Cache(p *person.Person) error {
	if p == nil {
		return apperrors.NewInvalidRecord("nil person")
	}
	if existing, ok := c.people[p.ID]; ok {
		if err := c.resolver.Merge(existing, p); err != nil {
			return fmt.Errorf("cache %s: %w", p.ID, err)
		}
		return nil
	}

	stored, err := person.New(*p)
	if err != nil {
		return err
	}
	c.people[stored.ID] = stored
	c.byKey[stored.Key()] = stored
	return nil
}

// CacheRaw converts a wire record and caches it, returning the stored person.
// Nested relatives and unions are not followed here.
func (c *Crowd) CacheRaw(r person.Raw) (*person.Person, error) {
	p, err := person.FromRaw(r)
	if err != nil {
		return nil, err
	}
	if err := c.Cache(p); err != nil {
		return nil, err
	}
	for _, u := range r.Unions {
		c.AddUnion(u)
	}
	return c.people[p.ID], nil
}

// Get returns the person stored under id.
func (c *Crowd) Get(id string) (*person.Person, bool) {
	p, ok := c.people[id]
	return p, ok
}

// ByKey returns the person last inserted under a simplified key.
func (c *Crowd) ByKey(key string) (*person.Person, bool) {
	p, ok := c.byKey[key]
	return p, ok
}

// Len returns the number of people.
func (c *Crowd) Len() int {
	return len(c.people)
}

// IDs returns all ids in sorted order.
func (c *Crowd) IDs() []string {
	ids := make([]string, 0, len(c.people))
	for id := range c.people {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Each visits people in id order.
func (c *Crowd) Each(fn func(*person.Person)) {
	for _, id := range c.IDs() {
		fn(c.people[id])
	}
}

// Seeds returns the ids a crawl started from.
func (c *Crowd) Seeds() []string {
	return append([]string(nil), c.seeds...)
}

// SetSeeds records the ids a crawl started from.
func (c *Crowd) SetSeeds(ids []string) {
	c.seeds = append([]string(nil), ids...)
}

// Snapshot identifies this crowd in external mirrors.
func (c *Crowd) Snapshot() string {
	return c.snapshot
}

// SetSnapshot restores a snapshot id read back from storage. Empty ids are
// ignored.
func (c *Crowd) SetSnapshot(id string) {
	if id != "" {
		c.snapshot = id
	}
}

// Resolver returns the merge resolver used by Cache.
func (c *Crowd) Resolver() *merge.Resolver {
	return c.resolver
}
