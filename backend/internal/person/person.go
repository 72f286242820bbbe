package person

import (
	"strings"

	apperrors "gedgraph/backend/pkg/errors"
)

// NoData is the marker the relative service puts in fields it withholds.
// It never overwrites real data during a merge.
const NoData = "?"

// Person is one individual in a crowd. ID is fixed at creation; everything
// else may be filled in or replaced by later merges.
type Person struct {
	ID string `yaml:"id" json:"id"`

	FirstName   string `yaml:"first_name,omitempty" json:"first_name,omitempty"`
	MiddleName  string `yaml:"middle_name,omitempty" json:"middle_name,omitempty"`
	LastName    string `yaml:"last_name,omitempty" json:"last_name,omitempty"`
	MaidenName  string `yaml:"maiden_name,omitempty" json:"maiden_name,omitempty"`
	Suffix      string `yaml:"suffix,omitempty" json:"suffix,omitempty"`
	DisplayName string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Gender      string `yaml:"gender,omitempty" json:"gender,omitempty"` // male, female or empty

	BirthDate   string `yaml:"birth_date,omitempty" json:"birth_date,omitempty"` // YYYY-MM-DD, 00 for unknown parts
	BirthPlace  string `yaml:"birth_place,omitempty" json:"birth_place,omitempty"`
	DeathDate   string `yaml:"death_date,omitempty" json:"death_date,omitempty"`
	DeathPlace  string `yaml:"death_place,omitempty" json:"death_place,omitempty"`
	BurialPlace string `yaml:"burial_place,omitempty" json:"burial_place,omitempty"`
	IsAlive     *bool  `yaml:"is_alive,omitempty" json:"is_alive,omitempty"`
	AboutMe     string `yaml:"about_me,omitempty" json:"about_me,omitempty"` // HTML

	Father   string   `yaml:"father,omitempty" json:"father,omitempty"`
	Mother   string   `yaml:"mother,omitempty" json:"mother,omitempty"`
	Parents  []string `yaml:"parents,omitempty" json:"parents,omitempty"`
	Children []string `yaml:"children,omitempty" json:"children,omitempty"`
	Siblings []string `yaml:"siblings,omitempty" json:"siblings,omitempty"`
	Spouses  []string `yaml:"spouses,omitempty" json:"spouses,omitempty"`

	// FamilyKey is the family this person belongs to as a child.
	FamilyKey string `yaml:"family_key,omitempty" json:"family_key,omitempty"`

	key string
}

// New validates p and returns a copy. The simplified key is computed from
// the name unless p already carries one, so copying a stored person keeps
// the key it was created with.
func New(p Person) (*Person, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return nil, apperrors.NewInvalidRecord("missing id")
	}
	if p.key == "" {
		p.key = SimplifiedKey(p.Name())
	}
	if p.key == "" {
		p.key = SimplifiedKey(p.ID)
	}
	return &p, nil
}

// Restore rebuilds a persisted person with the key it was saved under. An
// empty key is derived as in New.
func Restore(p Person, key string) (*Person, error) {
	p.key = key
	return New(p)
}

// Key returns the simplified key derived from the name at creation.
func (p *Person) Key() string {
	return p.key
}

// Name returns the best human readable name available.
func (p *Person) Name() string {
	if p.DisplayName != "" && p.DisplayName != NoData {
		return p.DisplayName
	}
	var parts []string
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName, p.Suffix} {
		if s != "" && s != NoData {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Relations returns the id list for a single edge.
func (p *Person) Relations(edge EdgeMask) []string {
	switch edge {
	case Parents:
		return p.Parents
	case Children:
		return p.Children
	case Siblings:
		return p.Siblings
	case Spouses:
		return p.Spouses
	}
	return nil
}

// CollapseRelations de-duplicates every relationship list and drops
// references to the person itself.
func (p *Person) CollapseRelations() {
	p.Parents = uniqueIDs(p.Parents, p.ID)
	p.Children = uniqueIDs(p.Children, p.ID)
	p.Siblings = uniqueIDs(p.Siblings, p.ID)
	p.Spouses = uniqueIDs(p.Spouses, p.ID)
}

// IsMale reports a known male gender.
func (p *Person) IsMale() bool {
	return strings.EqualFold(p.Gender, "male")
}

// IsFemale reports a known female gender.
func (p *Person) IsFemale() bool {
	return strings.EqualFold(p.Gender, "female")
}

func uniqueIDs(ids []string, self string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == self || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
