package crowd

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"gedgraph/backend/internal/person"
)

// Union is a marriage record between two partners.
type Union struct {
	Partners      []string `yaml:"partners" json:"partners"`
	MarriageDate  string   `yaml:"marriage_date,omitempty" json:"marriage_date,omitempty"`
	MarriagePlace string   `yaml:"marriage_place,omitempty" json:"marriage_place,omitempty"`
}

func unionKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// AddUnion records a marriage. Unions with other than two partners are
// ignored; known values are only filled in, never overwritten.
func (c *Crowd) AddUnion(u person.RawUnion) {
	if len(u.Partners) != 2 || u.Partners[0] == "" || u.Partners[1] == "" {
		c.logger.Debug("Skipping union", zap.Strings("partners", u.Partners))
		return
	}
	c.putUnion(Union{
		Partners:      []string{u.Partners[0], u.Partners[1]},
		MarriageDate:  person.DateString(u.MarriageDate),
		MarriagePlace: u.MarriagePlace,
	})
}

// PutUnion records an already flattened union.
func (c *Crowd) PutUnion(u Union) error {
	if len(u.Partners) != 2 || u.Partners[0] == "" || u.Partners[1] == "" {
		return fmt.Errorf("union needs two partners, got %d", len(u.Partners))
	}
	c.putUnion(u)
	return nil
}

func (c *Crowd) putUnion(u Union) {
	key := unionKey(u.Partners[0], u.Partners[1])
	existing, ok := c.unions[key]
	if !ok {
		c.unions[key] = &u
		return
	}
	if existing.MarriageDate == "" {
		existing.MarriageDate = u.MarriageDate
	}
	if existing.MarriagePlace == "" {
		existing.MarriagePlace = u.MarriagePlace
	}
}

// Union returns the marriage between a and b in either order.
func (c *Crowd) Union(a, b string) (*Union, bool) {
	u, ok := c.unions[unionKey(a, b)]
	return u, ok
}

// Unions returns all unions ordered by partner key.
func (c *Crowd) Unions() []Union {
	keys := make([]string, 0, len(c.unions))
	for k := range c.unions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Union, 0, len(keys))
	for _, k := range keys {
		out = append(out, *c.unions[k])
	}
	return out
}
