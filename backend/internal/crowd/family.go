package crowd

import (
	"sort"

	"go.uber.org/zap"

	"gedgraph/backend/internal/person"
)

// UnknownParent stands in for a missing side of a family key.
const UnknownParent = "?"

// Family is a couple and the children they share. Families are derived
// from the crowd, never fetched.
type Family struct {
	Key           string           `json:"key"`
	Husband       string           `json:"husband,omitempty"`
	Wife          string           `json:"wife,omitempty"`
	Children      []*person.Person `json:"-"`
	MarriageDate  string           `json:"marriage_date,omitempty"`
	MarriagePlace string           `json:"marriage_place,omitempty"`
}

// ChildIDs returns the children's ids in birth order.
func (f *Family) ChildIDs() []string {
	ids := make([]string, 0, len(f.Children))
	for _, ch := range f.Children {
		ids = append(ids, ch.ID)
	}
	return ids
}

// knownID reports an id that names a real person, not a blank or the
// withheld-value marker.
func knownID(id string) bool {
	return id != "" && !person.IsNoData(id)
}

// FamilyKey builds the key for a father/mother pair.
func FamilyKey(father, mother string) string {
	if father == "" {
		father = UnknownParent
	}
	if mother == "" {
		mother = UnknownParent
	}
	return father + "x" + mother
}

// Families groups people into families. The result is computed once and
// memoized: people cached afterwards are not reflected, and a later call
// with a different synthesizeChildless returns the first result.
func (c *Crowd) Families(synthesizeChildless bool) map[string]*Family {
	if c.families != nil {
		return c.families
	}

	families := make(map[string]*Family)
	c.Each(func(p *person.Person) {
		if !knownID(p.Father) || !knownID(p.Mother) {
			return
		}
		key := FamilyKey(p.Father, p.Mother)
		f, ok := families[key]
		if !ok {
			f = &Family{Key: key, Husband: p.Father, Wife: p.Mother}
			families[key] = f
		}
		f.Children = append(f.Children, p)
		p.FamilyKey = key
	})

	// Lexicographic on the padded date string; partial dates sort as written.
	for _, f := range families {
		sort.SliceStable(f.Children, func(i, j int) bool {
			return f.Children[i].BirthDate < f.Children[j].BirthDate
		})
	}

	if synthesizeChildless {
		c.Each(func(p *person.Person) {
			for _, sid := range p.Spouses {
				if !knownID(sid) {
					continue
				}
				spouse, ok := c.people[sid]
				if !ok {
					continue
				}
				// Order by gender only when both are known.
				father, mother := p.ID, spouse.ID
				if p.IsFemale() && spouse.IsMale() {
					father, mother = mother, father
				}
				key := FamilyKey(father, mother)
				if _, ok := families[key]; !ok {
					families[key] = &Family{Key: key, Husband: father, Wife: mother}
				}
			}
		})
	}

	for _, f := range families {
		if u, ok := c.Union(f.Husband, f.Wife); ok {
			f.MarriageDate = u.MarriageDate
			f.MarriagePlace = u.MarriagePlace
		}
	}

	c.families = families
	c.logger.Debug("Grouped families",
		zap.Int("families", len(families)),
		zap.Int("people", len(c.people)),
	)
	return families
}

// FamilyList returns the memoized families ordered by key.
func (c *Crowd) FamilyList(synthesizeChildless bool) []*Family {
	families := c.Families(synthesizeChildless)
	keys := make([]string, 0, len(families))
	for k := range families {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Family, 0, len(keys))
	for _, k := range keys {
		out = append(out, families[k])
	}
	return out
}

// SpouseFamilies returns keys of grouped families in which id is husband
// or wife. Empty until Families has run.
func (c *Crowd) SpouseFamilies(id string) []string {
	var keys []string
	for k, f := range c.families {
		if f.Husband == id || f.Wife == id {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
