package merge

import (
	"fmt"

	"go.uber.org/zap"

	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
	"gedgraph/backend/pkg/logger"
)

// Conflict describes two different known values for one field.
type Conflict struct {
	PersonID string
	Field    string
	Old      any
	New      any
}

// Decider settles conflicts, typically by asking a human.
type Decider interface {
	Decide(c Conflict) (Decision, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(c Conflict) (Decision, error)

// Decide calls f(c).
func (f DeciderFunc) Decide(c Conflict) (Decision, error) {
	return f(c)
}

// Resolver merges an incoming version of a person into the stored one.
// Always/Never answers are remembered per field for the resolver's life.
type Resolver struct {
	decider Decider
	sticky  map[string]Decision
	logger  *zap.Logger
}

// NewResolver creates a resolver. A nil decider makes every genuine
// conflict fail with ConflictUnresolved.
func NewResolver(decider Decider) *Resolver {
	return &Resolver{
		decider: decider,
		sticky:  make(map[string]Decision),
		logger:  logger.Get(),
	}
}

// SetDecider replaces the collaborator asked about new conflicts. Sticky
// decisions already remembered are kept.
func (r *Resolver) SetDecider(d Decider) {
	r.decider = d
}

// Remember records a sticky decision for a field ahead of any conflict.
func (r *Resolver) Remember(field string, d Decision) error {
	if !d.Sticky() {
		return fmt.Errorf("decision %s for %s is not sticky", d, field)
	}
	if _, ok := person.LookupAttribute(field); !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	r.sticky[field] = d
	return nil
}

// Sticky returns a copy of the remembered decisions.
func (r *Resolver) Sticky() map[string]Decision {
	out := make(map[string]Decision, len(r.sticky))
	for k, v := range r.sticky {
		out[k] = v
	}
	return out
}

type assignment struct {
	attr  person.Attribute
	value any
}

// Merge folds incoming into existing field by field. Nothing is written
// unless every conflict was decided.
func (r *Resolver) Merge(existing, incoming *person.Person) error {
	if existing == nil || incoming == nil {
		return apperrors.NewInvalidRecord("merge of nil person")
	}
	if existing.ID != incoming.ID {
		return apperrors.NewInvalidRecord(fmt.Sprintf("merge of %s into %s", incoming.ID, existing.ID))
	}

	var plan []assignment
	for _, attr := range person.Attributes() {
		newVal := attr.Get(incoming)
		if person.IsBlank(newVal) || person.IsNoData(newVal) {
			continue
		}
		oldVal := attr.Get(existing)
		if person.Equal(oldVal, newVal) {
			continue
		}
		if person.IsBlank(oldVal) || person.IsNoData(oldVal) {
			plan = append(plan, assignment{attr, newVal})
			continue
		}
		if attr.Structured && person.Canonical(oldVal) == person.Canonical(newVal) {
			continue
		}

		d, err := r.decide(Conflict{PersonID: existing.ID, Field: attr.Name, Old: oldVal, New: newVal})
		if err != nil {
			return err
		}
		if d.Replaces() {
			plan = append(plan, assignment{attr, newVal})
		}
	}

	for _, a := range plan {
		a.attr.Set(existing, a.value)
	}
	if len(plan) > 0 {
		r.logger.Debug("Merged person",
			zap.String("person_id", existing.ID),
			zap.Int("fields_updated", len(plan)),
		)
	}
	return nil
}

func (r *Resolver) decide(c Conflict) (Decision, error) {
	if d, ok := r.sticky[c.Field]; ok {
		return d, nil
	}
	if r.decider == nil {
		return Undecided, apperrors.NewConflictUnresolved(c.PersonID, c.Field, nil)
	}

	d, err := r.decider.Decide(c)
	if err != nil {
		return Undecided, apperrors.NewConflictUnresolved(c.PersonID, c.Field, err)
	}
	switch d {
	case ReplaceOnce, KeepOnce:
	case AlwaysReplace, NeverReplace:
		r.sticky[c.Field] = d
		r.logger.Info("Remembering conflict decision",
			zap.String("field", c.Field),
			zap.Stringer("decision", d),
		)
	default:
		return Undecided, apperrors.NewConflictUnresolved(c.PersonID, c.Field, fmt.Errorf("decider returned %s", d))
	}
	return d, nil
}
