package merge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy maps field names to sticky decisions, e.g.
//
//	about_me: never
//	birth_place: always
type Policy map[string]Decision

// UnmarshalYAML parses a decision scalar.
func (d *Decision) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// LoadPolicy reads a policy file. An empty path yields an empty policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return Policy{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conflict policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes policy YAML.
func ParsePolicy(data []byte) (Policy, error) {
	p := Policy{}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse conflict policy: %w", err)
	}
	return p, nil
}

// Apply seeds r with every decision in the policy.
func (p Policy) Apply(r *Resolver) error {
	for field, d := range p {
		if err := r.Remember(field, d); err != nil {
			return fmt.Errorf("conflict policy: %w", err)
		}
	}
	return nil
}
