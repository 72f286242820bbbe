package services

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"gedgraph/backend/internal/ancestry"
	"gedgraph/backend/internal/crawler"
	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/gedcom"
	"gedgraph/backend/internal/person"
	"gedgraph/backend/pkg/logger"
)

// Mirror receives a copy of the crowd, e.g. the Neo4j repository.
type Mirror interface {
	SaveCrowd(ctx context.Context, c *crowd.Crowd) error
}

// Options configures a Session.
type Options struct {
	StorePath           string // Empty disables Save
	SynthesizeChildless bool
	Mirror              Mirror // Optional
}

// Session owns one crowd and the operations that grow or read it. All
// methods are serialized by a single mutex since the crowd has no locking
// of its own.
type Session struct {
	mu      sync.Mutex
	crowd   *crowd.Crowd
	crawler *crawler.Crawler
	builder *ancestry.Builder
	opts    Options
	logger  *zap.Logger
}

// Summary describes the session's crowd.
type Summary struct {
	Snapshot string   `json:"snapshot"`
	People   int      `json:"people"`
	Seeds    []string `json:"seeds"`
}

// NewSession wires a crowd to its fetchers.
func NewSession(c *crowd.Crowd, relatives crawler.Fetcher, ancestors ancestry.Fetcher, opts Options) *Session {
	return &Session{
		crowd:   c,
		crawler: crawler.New(relatives, c),
		builder: ancestry.NewBuilder(ancestors, c),
		opts:    opts,
		logger:  logger.Get(),
	}
}

// Crawl expands the crowd around seeds.
func (s *Session) Crawl(ctx context.Context, seeds []string, radius int, mask person.EdgeMask) (*crawler.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crawler.Expand(ctx, seeds, radius, mask)
}

// Ancestors builds the ancestor tree of id.
func (s *Session) Ancestors(ctx context.Context, id string, depth int) (*ancestry.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Build(ctx, id, depth)
}

// Person returns a copy of the person stored under id.
func (s *Session) Person(id string) (person.Person, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.crowd.Get(id)
	if !ok {
		return person.Person{}, false
	}
	return *p, true
}

// Families returns the grouped families ordered by key.
func (s *Session) Families() []crowd.Family {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.crowd.FamilyList(s.opts.SynthesizeChildless)
	out := make([]crowd.Family, len(list))
	for i, f := range list {
		out[i] = *f
	}
	return out
}

// WriteGEDCOM renders the crowd as a GEDCOM document.
func (s *Session) WriteGEDCOM(w io.Writer, opts gedcom.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts.SynthesizeChildless = s.opts.SynthesizeChildless
	return gedcom.Write(w, s.crowd, opts)
}

// Save writes the crowd to the store file, if one is configured.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.StorePath == "" {
		return nil
	}
	return s.crowd.SaveFile(s.opts.StorePath)
}

// Sync pushes the crowd to the mirror. It reports false when no mirror is
// configured.
func (s *Session) Sync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.Mirror == nil {
		return false, nil
	}
	if err := s.opts.Mirror.SaveCrowd(ctx, s.crowd); err != nil {
		return true, err
	}
	return true, nil
}

// Summary describes the current crowd.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Snapshot: s.crowd.Snapshot(),
		People:   s.crowd.Len(),
		Seeds:    s.crowd.Seeds(),
	}
}
