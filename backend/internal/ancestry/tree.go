package ancestry

import "gedgraph/backend/internal/person"

// Tree is an ancestor chart indexed by Ahnentafel number: 1 is the subject,
// 2k the father of k and 2k+1 the mother of k. Unknown ancestors are holes.
type Tree struct {
	slots []*person.Person
	last  int
}

// Slot is one filled position in a tree.
type Slot struct {
	Index      int    `json:"index"`
	Generation int    `json:"generation"`
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
}

// At returns the person at index i, or nil for a hole or anything past Last.
func (t *Tree) At(i int) *person.Person {
	if i < 1 || i > t.last {
		return nil
	}
	return t.slots[i]
}

// Last is the highest index ever filled.
func (t *Tree) Last() int {
	return t.last
}

// Len counts filled positions.
func (t *Tree) Len() int {
	n := 0
	for _, p := range t.slots {
		if p != nil {
			n++
		}
	}
	return n
}

// Subject is the person at index 1.
func (t *Tree) Subject() *person.Person {
	return t.At(1)
}

// Slots lists the filled positions in index order.
func (t *Tree) Slots() []Slot {
	var out []Slot
	for i := 1; i <= t.last; i++ {
		p := t.slots[i]
		if p == nil {
			continue
		}
		out = append(out, Slot{Index: i, Generation: Generation(i), ID: p.ID, Name: p.Name()})
	}
	return out
}

func (t *Tree) set(i int, p *person.Person) {
	if i >= len(t.slots) {
		grown := make([]*person.Person, 2*i)
		copy(grown, t.slots)
		t.slots = grown
	}
	t.slots[i] = p
	if i > t.last {
		t.last = i
	}
}

// Generation returns the generation of index i, the subject being 0.
func Generation(i int) int {
	g := -1
	for ; i > 0; i >>= 1 {
		g++
	}
	return g
}
