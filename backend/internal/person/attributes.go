package person

import (
	"encoding/json"
	"sort"
	"strings"
)

// Attribute is one mergeable field of a Person. Structured attributes hold
// id lists and are compared by their canonical form.
type Attribute struct {
	Name       string
	Structured bool

	get func(*Person) any
	set func(*Person, any)
}

// Get reads the attribute from p.
func (a Attribute) Get(p *Person) any {
	return a.get(p)
}

// Set writes v into p. v must have the type Get returns.
func (a Attribute) Set(p *Person, v any) {
	a.set(p, v)
}

func stringAttr(name string, field func(*Person) *string) Attribute {
	return Attribute{
		Name: name,
		get:  func(p *Person) any { return *field(p) },
		set:  func(p *Person, v any) { *field(p) = v.(string) },
	}
}

func listAttr(name string, field func(*Person) *[]string) Attribute {
	return Attribute{
		Name:       name,
		Structured: true,
		get:        func(p *Person) any { return *field(p) },
		set: func(p *Person, v any) {
			*field(p) = append([]string(nil), v.([]string)...)
		},
	}
}

// Id and family key are not attributes: the first is immutable, the second
// is owned by family grouping.
var attributes = []Attribute{
	stringAttr("first_name", func(p *Person) *string { return &p.FirstName }),
	stringAttr("middle_name", func(p *Person) *string { return &p.MiddleName }),
	stringAttr("last_name", func(p *Person) *string { return &p.LastName }),
	stringAttr("maiden_name", func(p *Person) *string { return &p.MaidenName }),
	stringAttr("suffix", func(p *Person) *string { return &p.Suffix }),
	stringAttr("display_name", func(p *Person) *string { return &p.DisplayName }),
	stringAttr("gender", func(p *Person) *string { return &p.Gender }),
	stringAttr("birth_date", func(p *Person) *string { return &p.BirthDate }),
	stringAttr("birth_place", func(p *Person) *string { return &p.BirthPlace }),
	stringAttr("death_date", func(p *Person) *string { return &p.DeathDate }),
	stringAttr("death_place", func(p *Person) *string { return &p.DeathPlace }),
	stringAttr("burial_place", func(p *Person) *string { return &p.BurialPlace }),
	{
		Name: "is_alive",
		get:  func(p *Person) any { return p.IsAlive },
		set: func(p *Person, v any) {
			if b := v.(*bool); b != nil {
				alive := *b
				p.IsAlive = &alive
				return
			}
			p.IsAlive = nil
		},
	},
	stringAttr("about_me", func(p *Person) *string { return &p.AboutMe }),
	stringAttr("father", func(p *Person) *string { return &p.Father }),
	stringAttr("mother", func(p *Person) *string { return &p.Mother }),
	listAttr("parents", func(p *Person) *[]string { return &p.Parents }),
	listAttr("children", func(p *Person) *[]string { return &p.Children }),
	listAttr("siblings", func(p *Person) *[]string { return &p.Siblings }),
	listAttr("spouses", func(p *Person) *[]string { return &p.Spouses }),
}

var attributesByName = func() map[string]Attribute {
	m := make(map[string]Attribute, len(attributes))
	for _, a := range attributes {
		m[a.Name] = a
	}
	return m
}()

// Attributes lists every mergeable attribute in declaration order.
func Attributes() []Attribute {
	return attributes
}

// LookupAttribute finds an attribute by its snake_case name.
func LookupAttribute(name string) (Attribute, bool) {
	a, ok := attributesByName[name]
	return a, ok
}

// Lookup returns a named value of p, including its id and family key.
func (p *Person) Lookup(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "family_key":
		return p.FamilyKey, true
	case "key":
		return p.key, true
	case "name":
		return p.Name(), true
	}
	a, ok := attributesByName[name]
	if !ok {
		return nil, false
	}
	return a.get(p), true
}

// IsBlank reports a value carrying no information.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *bool:
		return x == nil
	case []string:
		return len(x) == 0
	}
	return false
}

// IsNoData reports the service's withheld-value marker.
func IsNoData(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == NoData
}

// Equal compares two attribute values. Lists compare as sets.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *bool:
		y, ok := b.(*bool)
		if !ok {
			return false
		}
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	case []string:
		return Canonical(a) == Canonical(b)
	}
	return Canonical(a) == Canonical(b)
}

// Canonical serializes a value so that equivalent values compare equal.
func Canonical(v any) string {
	if ids, ok := v.([]string); ok {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		v = sorted
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
