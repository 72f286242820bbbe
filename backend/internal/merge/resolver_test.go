package merge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
)

func mustPerson(t *testing.T, p person.Person) *person.Person {
	t.Helper()
	out, err := person.New(p)
	require.NoError(t, err)
	return out
}

func TestMerge_DisjointFieldsUnion(t *testing.T) {
	r := NewResolver(nil)
	existing := mustPerson(t, person.Person{ID: "p", FirstName: "Jane", Parents: []string{"f"}})
	incoming := mustPerson(t, person.Person{ID: "p", BirthDate: "1980-05-02", Spouses: []string{"s"}})

	require.NoError(t, r.Merge(existing, incoming))

	assert.Equal(t, "Jane", existing.FirstName)
	assert.Equal(t, "1980-05-02", existing.BirthDate)
	assert.Equal(t, []string{"f"}, existing.Parents)
	assert.Equal(t, []string{"s"}, existing.Spouses)
}

func TestMerge_SkipsNoDataAndEqualValues(t *testing.T) {
	r := NewResolver(nil)
	existing := mustPerson(t, person.Person{ID: "p", LastName: "Doe", Children: []string{"a", "b"}})
	incoming := mustPerson(t, person.Person{ID: "p", LastName: person.NoData, Children: []string{"b", "a"}})

	require.NoError(t, r.Merge(existing, incoming))
	assert.Equal(t, "Doe", existing.LastName)
	assert.Equal(t, []string{"a", "b"}, existing.Children)
}

func TestMerge_ReplacesNoData(t *testing.T) {
	r := NewResolver(nil)
	existing := mustPerson(t, person.Person{ID: "p", LastName: person.NoData})
	incoming := mustPerson(t, person.Person{ID: "p", LastName: "Doe"})

	require.NoError(t, r.Merge(existing, incoming))
	assert.Equal(t, "Doe", existing.LastName)
}

func TestMerge_ConflictWithoutDeciderFails(t *testing.T) {
	r := NewResolver(nil)
	existing := mustPerson(t, person.Person{ID: "p", FirstName: "Jane", LastName: "Doe"})
	incoming := mustPerson(t, person.Person{ID: "p", FirstName: "Janet", BirthPlace: "Oslo"})

	err := r.Merge(existing, incoming)
	require.Error(t, err)

	var unresolved *apperrors.ErrConflictUnresolved
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "first_name", unresolved.Field)
	// nothing written on failure
	assert.Equal(t, "Jane", existing.FirstName)
	assert.Empty(t, existing.BirthPlace)
}

func TestMerge_DecisionsApplied(t *testing.T) {
	tests := []struct {
		decision Decision
		want     string
	}{
		{ReplaceOnce, "Janet"},
		{KeepOnce, "Jane"},
		{AlwaysReplace, "Janet"},
		{NeverReplace, "Jane"},
	}
	for _, tt := range tests {
		t.Run(tt.decision.String(), func(t *testing.T) {
			r := NewResolver(NewScripted(tt.decision))
			existing := mustPerson(t, person.Person{ID: "p", FirstName: "Jane"})
			incoming := mustPerson(t, person.Person{ID: "p", FirstName: "Janet"})

			require.NoError(t, r.Merge(existing, incoming))
			assert.Equal(t, tt.want, existing.FirstName)
		})
	}
}

func TestMerge_StickyDecisionAskedOnce(t *testing.T) {
	scripted := NewScripted(AlwaysReplace)
	r := NewResolver(scripted)

	a := mustPerson(t, person.Person{ID: "a", BirthPlace: "Oslo"})
	b := mustPerson(t, person.Person{ID: "b", BirthPlace: "Bergen"})

	require.NoError(t, r.Merge(a, mustPerson(t, person.Person{ID: "a", BirthPlace: "Christiania"})))
	require.NoError(t, r.Merge(b, mustPerson(t, person.Person{ID: "b", BirthPlace: "Bjørgvin"})))

	assert.Len(t, scripted.Asked, 1)
	assert.Equal(t, "Christiania", a.BirthPlace)
	assert.Equal(t, "Bjørgvin", b.BirthPlace)
	assert.Equal(t, AlwaysReplace, r.Sticky()["birth_place"])
}

func TestMerge_StructuredConflict(t *testing.T) {
	scripted := NewScripted(ReplaceOnce)
	r := NewResolver(scripted)
	existing := mustPerson(t, person.Person{ID: "p", Spouses: []string{"s1"}})
	incoming := mustPerson(t, person.Person{ID: "p", Spouses: []string{"s1", "s2"}})

	require.NoError(t, r.Merge(existing, incoming))
	require.Len(t, scripted.Asked, 1)
	assert.Equal(t, "spouses", scripted.Asked[0].Field)
	assert.Equal(t, []string{"s1", "s2"}, existing.Spouses)
}

func TestMerge_IdempotentForSameRecord(t *testing.T) {
	r := NewResolver(nil)
	alive := true
	existing := mustPerson(t, person.Person{ID: "p", FirstName: "Jane", IsAlive: &alive, Siblings: []string{"x"}})
	again := mustPerson(t, *existing)

	require.NoError(t, r.Merge(existing, again))
	assert.Equal(t, "Jane", existing.FirstName)
	assert.Equal(t, []string{"x"}, existing.Siblings)
}

func TestMerge_RejectsMismatchedIDs(t *testing.T) {
	r := NewResolver(nil)
	err := r.Merge(mustPerson(t, person.Person{ID: "a"}), mustPerson(t, person.Person{ID: "b"}))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeRecord))
}

func TestPolicy_Apply(t *testing.T) {
	policy, err := ParsePolicy([]byte("about_me: never\nbirth_place: a\n"))
	require.NoError(t, err)

	r := NewResolver(nil)
	require.NoError(t, policy.Apply(r))

	existing := mustPerson(t, person.Person{ID: "p", AboutMe: "<p>old</p>", BirthPlace: "Oslo"})
	incoming := mustPerson(t, person.Person{ID: "p", AboutMe: "<p>new</p>", BirthPlace: "Bergen"})
	require.NoError(t, r.Merge(existing, incoming))

	assert.Equal(t, "<p>old</p>", existing.AboutMe)
	assert.Equal(t, "Bergen", existing.BirthPlace)
}

func TestPolicy_Invalid(t *testing.T) {
	_, err := ParsePolicy([]byte("about_me: sometimes\n"))
	assert.Error(t, err)

	policy, err := ParsePolicy([]byte("about_me: replace\n"))
	require.NoError(t, err)
	assert.Error(t, policy.Apply(NewResolver(nil)), "one-off decisions cannot be sticky")

	policy, err = ParsePolicy([]byte("shoe_size: always\n"))
	require.NoError(t, err)
	assert.Error(t, policy.Apply(NewResolver(nil)))
}

func TestPrompt_Decide(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("maybe\nn\n"), &out)

	d, err := p.Decide(Conflict{PersonID: "p", Field: "last_name", Old: "Doe", New: "Roe"})
	require.NoError(t, err)
	assert.Equal(t, NeverReplace, d)
	assert.Contains(t, out.String(), "unrecognised answer")
	assert.Contains(t, out.String(), "incoming: Roe")

	_, err = NewPrompt(strings.NewReader(""), &out).Decide(Conflict{Field: "x"})
	assert.Error(t, err)
}

func TestParseDecision(t *testing.T) {
	for in, want := range map[string]Decision{
		"replace": ReplaceOnce, "k": KeepOnce, "ALWAYS": AlwaysReplace, " never ": NeverReplace,
	} {
		got, err := ParseDecision(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDecision("x")
	assert.Error(t, err)
}

func TestSetDecider_KeepsStickyDecisions(t *testing.T) {
	r := NewResolver(nil)
	require.NoError(t, r.Remember("birth_place", NeverReplace))
	r.SetDecider(NewScripted(ReplaceOnce))

	existing := mustPerson(t, person.Person{ID: "p", FirstName: "Jane", BirthPlace: "Oslo"})
	incoming := mustPerson(t, person.Person{ID: "p", FirstName: "Janet", BirthPlace: "Bergen"})

	require.NoError(t, r.Merge(existing, incoming))
	assert.Equal(t, "Janet", existing.FirstName)
	assert.Equal(t, "Oslo", existing.BirthPlace)
}
