package crowd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"gedgraph/backend/internal/merge"
	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
	"gedgraph/backend/pkg/logger"
)

// literal is the persisted form of a crowd: flat person records plus
// unions and crawl metadata.
type literal struct {
	Snapshot string   `yaml:"snapshot,omitempty"`
	Seeds    []string `yaml:"seeds,omitempty,flow"`
	People   []entry  `yaml:"people"`
	Unions   []Union  `yaml:"unions,omitempty"`
}

// entry is one persisted person with the simplified key it was created with.
type entry struct {
	Key           string `yaml:"key,omitempty"`
	person.Person `yaml:",inline"`
}

// Dump writes the crowd as YAML, people in id order.
func (c *Crowd) Dump(w io.Writer) error {
	lit := literal{
		Snapshot: c.snapshot,
		Seeds:    c.seeds,
		People:   make([]entry, 0, len(c.people)),
		Unions:   c.Unions(),
	}
	c.Each(func(p *person.Person) {
		lit.People = append(lit.People, entry{Key: p.Key(), Person: *p})
	})

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&lit); err != nil {
		return fmt.Errorf("encode crowd: %w", err)
	}
	return enc.Close()
}

// Load rebuilds a crowd from YAML written by Dump. Repeated ids are merged
// through resolver like any other insert.
func Load(r io.Reader, resolver *merge.Resolver) (*Crowd, error) {
	var lit literal
	if err := yaml.NewDecoder(r).Decode(&lit); err != nil {
		if err == io.EOF {
			return New(resolver), nil
		}
		return nil, apperrors.NewMalformedStoreLiteral(-1, "unreadable document", err)
	}

	c := New(resolver)
	c.SetSnapshot(lit.Snapshot)
	c.SetSeeds(lit.Seeds)
	for i, e := range lit.People {
		p, err := person.Restore(e.Person, e.Key)
		if err != nil {
			return nil, apperrors.NewMalformedStoreLiteral(i, "person rejected", err)
		}
		if err := c.Cache(p); err != nil {
			return nil, apperrors.NewMalformedStoreLiteral(i, "person rejected", err)
		}
	}
	for i, u := range lit.Unions {
		if err := c.PutUnion(u); err != nil {
			return nil, apperrors.NewMalformedStoreLiteral(i, "bad union", err)
		}
	}
	return c, nil
}

// SaveFile dumps the crowd to path, replacing it atomically.
func (c *Crowd) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".crowd-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Dump(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}

	c.logger.Info("Crowd saved",
		zap.String("path", path),
		zap.Int("people", len(c.people)),
	)
	return nil
}

// LoadFile reads a crowd from path. A missing file yields an empty crowd.
func LoadFile(path string, resolver *merge.Resolver) (*Crowd, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(resolver), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	c, err := Load(f, resolver)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("Crowd loaded",
		zap.String("path", path),
		zap.Int("people", c.Len()),
	)
	return c, nil
}
