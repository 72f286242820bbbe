package graph

import (
	"sort"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/person"
)

// personProps flattens a person into node properties. Blank values are left
// out since Neo4j cannot store nulls.
func personProps(p *person.Person) map[string]interface{} {
	props := map[string]interface{}{"id": p.ID}
	for _, a := range person.Attributes() {
		v := a.Get(p)
		if person.IsBlank(v) {
			continue
		}
		switch x := v.(type) {
		case *bool:
			props[a.Name] = *x
		default:
			props[a.Name] = x
		}
	}
	if p.FamilyKey != "" {
		props["family_key"] = p.FamilyKey
	}
	if p.Key() != "" {
		props["key"] = p.Key()
	}
	return props
}

// restorePerson rebuilds a person from node properties, keeping the
// simplified key it was saved with.
func restorePerson(props map[string]interface{}) (*person.Person, error) {
	return person.Restore(personFromProps(props), getStringFromMap(props, "key", ""))
}

// personFromProps rebuilds a person from node properties.
func personFromProps(props map[string]interface{}) person.Person {
	p := person.Person{
		ID:        getStringFromMap(props, "id", ""),
		FamilyKey: getStringFromMap(props, "family_key", ""),
	}
	for _, a := range person.Attributes() {
		switch {
		case a.Name == "is_alive":
			if b := getBoolPtrFromMap(props, a.Name); b != nil {
				a.Set(&p, b)
			}
		case a.Structured:
			if ids := getStringSliceFromMap(props, a.Name); len(ids) > 0 {
				a.Set(&p, ids)
			}
		default:
			if s := getStringFromMap(props, a.Name, ""); s != "" {
				a.Set(&p, s)
			}
		}
	}
	return p
}

// link is one relationship between two people present in the crowd.
type link struct {
	From  string                 `json:"from"`
	To    string                 `json:"to"`
	Props map[string]interface{} `json:"props"`
}

func (l link) param() map[string]interface{} {
	props := l.Props
	if props == nil {
		props = map[string]interface{}{}
	}
	return map[string]interface{}{"from": l.From, "to": l.To, "props": props}
}

// crowdLinks derives the relationship edges to mirror. Parent edges point
// from parent to child; spouse and sibling edges are stored once per pair.
// Edges to people outside the crowd are skipped.
func crowdLinks(c *crowd.Crowd) (parents, spouses, siblings []link) {
	seenParent := map[[2]string]bool{}
	seenPair := map[string]map[[2]string]bool{"spouse": {}, "sibling": {}}

	addParent := func(parent, child string) {
		if parent == "" || parent == child {
			return
		}
		if _, ok := c.Get(parent); !ok {
			return
		}
		key := [2]string{parent, child}
		if seenParent[key] {
			return
		}
		seenParent[key] = true
		parents = append(parents, link{From: parent, To: child})
	}
	addPair := func(kind, a, b string) bool {
		if a == "" || b == "" || a == b {
			return false
		}
		if _, ok := c.Get(b); !ok {
			return false
		}
		if b < a {
			a, b = b, a
		}
		key := [2]string{a, b}
		if seenPair[kind][key] {
			return false
		}
		seenPair[kind][key] = true
		return true
	}

	c.Each(func(p *person.Person) {
		addParent(p.Father, p.ID)
		addParent(p.Mother, p.ID)
		for _, parent := range p.Parents {
			addParent(parent, p.ID)
		}
		for _, child := range p.Children {
			if _, ok := c.Get(child); ok {
				addParent(p.ID, child)
			}
		}
		for _, s := range p.Spouses {
			if addPair("spouse", p.ID, s) {
				a, b := ordered(p.ID, s)
				l := link{From: a, To: b}
				if u, ok := c.Union(a, b); ok {
					l.Props = unionProps(u)
				}
				spouses = append(spouses, l)
			}
		}
		for _, s := range p.Siblings {
			if addPair("sibling", p.ID, s) {
				a, b := ordered(p.ID, s)
				siblings = append(siblings, link{From: a, To: b})
			}
		}
	})

	// Unions may name couples that never list each other as spouses.
	for _, u := range c.Unions() {
		a, b := u.Partners[0], u.Partners[1]
		if _, ok := c.Get(a); !ok {
			continue
		}
		if addPair("spouse", a, b) {
			a, b = ordered(a, b)
			spouses = append(spouses, link{From: a, To: b, Props: unionProps(&u)})
		}
	}

	sort.SliceStable(parents, func(i, j int) bool { return less(parents[i], parents[j]) })
	sort.SliceStable(spouses, func(i, j int) bool { return less(spouses[i], spouses[j]) })
	sort.SliceStable(siblings, func(i, j int) bool { return less(siblings[i], siblings[j]) })
	return parents, spouses, siblings
}

func unionProps(u *crowd.Union) map[string]interface{} {
	props := map[string]interface{}{}
	if u.MarriageDate != "" {
		props["marriage_date"] = u.MarriageDate
	}
	if u.MarriagePlace != "" {
		props["marriage_place"] = u.MarriagePlace
	}
	return props
}

func ordered(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func less(a, b link) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}
