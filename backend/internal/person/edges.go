package person

import (
	"fmt"
	"strings"
)

// EdgeMask selects relationship types for a relative fetch.
type EdgeMask uint8

const (
	Parents EdgeMask = 1 << iota
	Children
	Siblings
	Spouses

	// NoEdges fetches only the requested people themselves.
	NoEdges EdgeMask = 0

	AllEdges = Parents | Children | Siblings | Spouses
)

var edgeNames = []struct {
	edge EdgeMask
	name string
}{
	{Parents, "parents"},
	{Children, "children"},
	{Siblings, "siblings"},
	{Spouses, "spouses"},
}

// Has reports whether every edge in e is part of m.
func (m EdgeMask) Has(e EdgeMask) bool {
	return e != 0 && m&e == e
}

// Edges splits the mask into single edges in a fixed order.
func (m EdgeMask) Edges() []EdgeMask {
	var out []EdgeMask
	for _, en := range edgeNames {
		if m.Has(en.edge) {
			out = append(out, en.edge)
		}
	}
	return out
}

// Names returns the wire names of the edges in the mask.
func (m EdgeMask) Names() []string {
	var out []string
	for _, en := range edgeNames {
		if m.Has(en.edge) {
			out = append(out, en.name)
		}
	}
	return out
}

func (m EdgeMask) String() string {
	if m == NoEdges {
		return "none"
	}
	return strings.Join(m.Names(), ",")
}

// ParseEdgeMask builds a mask from names such as "parents" or "spouses".
func ParseEdgeMask(names []string) (EdgeMask, error) {
	var m EdgeMask
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || name == "none" {
			continue
		}
		if name == "all" {
			m |= AllEdges
			continue
		}
		found := false
		for _, en := range edgeNames {
			if en.name == name {
				m |= en.edge
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown edge type %q", raw)
		}
	}
	return m, nil
}
