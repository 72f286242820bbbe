package merge

import (
	"fmt"
	"strings"
)

// Decision is the answer to a field conflict.
type Decision int

const (
	Undecided Decision = iota
	// ReplaceOnce takes the incoming value for this conflict only
	ReplaceOnce
	// KeepOnce keeps the existing value for this conflict only
	KeepOnce
	// AlwaysReplace takes the incoming value for every conflict on the field
	AlwaysReplace
	// NeverReplace keeps the existing value for every conflict on the field
	NeverReplace
)

var decisionNames = map[Decision]string{
	Undecided:     "undecided",
	ReplaceOnce:   "replace",
	KeepOnce:      "keep",
	AlwaysReplace: "always",
	NeverReplace:  "never",
}

func (d Decision) String() string {
	if name, ok := decisionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Sticky reports decisions that apply to all later conflicts on a field.
func (d Decision) Sticky() bool {
	return d == AlwaysReplace || d == NeverReplace
}

// Replaces reports whether the incoming value wins.
func (d Decision) Replaces() bool {
	return d == ReplaceOnce || d == AlwaysReplace
}

// ParseDecision accepts the String form or its first letter.
func ParseDecision(s string) (Decision, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range decisionNames {
		if d == Undecided {
			continue
		}
		if s == name || len(s) == 1 && s[0] == name[0] {
			return d, nil
		}
	}
	return Undecided, fmt.Errorf("unknown decision %q", s)
}

// UnmarshalText lets decisions appear in YAML policy files.
func (d *Decision) UnmarshalText(text []byte) error {
	parsed, err := ParseDecision(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText writes the String form.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
