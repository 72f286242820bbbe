package gedcom

import (
	"fmt"
	"strings"

	"gedgraph/backend/internal/person"
)

// Source supplies named values to field nodes.
type Source interface {
	Lookup(name string) (any, bool)
}

// Values is a Source backed by a plain map.
type Values map[string]any

// Lookup returns v[name].
func (v Values) Lookup(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// Node is one element of a template tree: a Literal, a Field or a Composite.
type Node interface {
	node()
}

// Literal is emitted verbatim as line data.
type Literal string

// Field renders a value looked up on the source. A missing or blank value
// omits the line.
type Field struct {
	Name   string
	Format Formatter
}

// Entry binds an output tag to a child node.
type Entry struct {
	Tag  string
	Node Node
}

// Composite is a line with optional data and nested child lines. Code is
// only rendered on level 0 lines.
type Composite struct {
	Code     Node
	Data     Node
	Children []Entry
}

func (Literal) node()   {}
func (Field) node()     {}
func (Composite) node() {}

// Formatter turns a looked up value into zero or more line payloads.
type Formatter struct {
	format    string
	transform func(any) ([]string, error)
}

// Format substitutes each value into a format string with one verb.
func Format(format string) Formatter {
	return Formatter{format: format}
}

// Transform converts the raw value. Returning no strings omits the line.
func Transform(fn func(any) ([]string, error)) Formatter {
	return Formatter{transform: fn}
}

func (f Formatter) apply(v any) ([]string, error) {
	if f.transform != nil {
		return f.transform(v)
	}
	values := stringsOf(v)
	if f.format == "" {
		return values, nil
	}
	out := make([]string, len(values))
	for i, s := range values {
		out[i] = fmt.Sprintf(f.format, s)
	}
	return out, nil
}

func stringsOf(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []string:
		return x
	case *bool:
		if x == nil {
			return nil
		}
		return []string{fmt.Sprint(*x)}
	}
	return []string{fmt.Sprint(v)}
}

func (f Field) resolve(src Source) ([]string, error) {
	v, ok := src.Lookup(f.Name)
	if !ok || person.IsBlank(v) || person.IsNoData(v) {
		return nil, nil
	}
	values, err := f.Format.apply(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	out := values[:0:0]
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
