package gedcom

import (
	"strings"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/person"
)

// IndividualTemplate renders an INDI record.
var IndividualTemplate = Composite{
	Code: Field{Name: "id", Format: Transform(IndividualXref)},
	Children: []Entry{
		{Tag: "NAME", Node: Composite{
			Data: Field{Name: "gedcom_name"},
			Children: []Entry{
				{Tag: "GIVN", Node: Field{Name: "given_names"}},
				{Tag: "SURN", Node: Field{Name: "last_name"}},
				{Tag: "NSFX", Node: Field{Name: "suffix"}},
			},
		}},
		{Tag: "NAME", Node: Composite{
			Data: Field{Name: "maiden_name", Format: Format("/%s/")},
			Children: []Entry{
				{Tag: "TYPE", Node: Field{Name: "maiden_name", Format: Transform(func(any) ([]string, error) {
					return []string{"maiden"}, nil
				})}},
			},
		}},
		{Tag: "SEX", Node: Field{Name: "gender", Format: Transform(FormatSex)}},
		{Tag: "BIRT", Node: Composite{
			Children: []Entry{
				{Tag: "DATE", Node: Field{Name: "birth_date", Format: Transform(FormatDate)}},
				{Tag: "PLAC", Node: Field{Name: "birth_place"}},
			},
		}},
		{Tag: "DEAT", Node: Composite{
			Data: Field{Name: "deceased", Format: Transform(FormatDeceased)},
			Children: []Entry{
				{Tag: "DATE", Node: Field{Name: "death_date", Format: Transform(FormatDate)}},
				{Tag: "PLAC", Node: Field{Name: "death_place"}},
			},
		}},
		{Tag: "BURI", Node: Composite{
			Children: []Entry{
				{Tag: "PLAC", Node: Field{Name: "burial_place"}},
			},
		}},
		{Tag: "FAMC", Node: Field{Name: "family_key", Format: Transform(FamilyXref)}},
		{Tag: "FAMS", Node: Field{Name: "spouse_families", Format: Transform(FamilyXref)}},
		{Tag: "NOTE", Node: Field{Name: "about_me", Format: Transform(FormatHTMLText)}},
		{Tag: "REFN", Node: Field{Name: "id"}},
	},
}

// FamilyTemplate renders a FAM record.
var FamilyTemplate = Composite{
	Code: Field{Name: "key", Format: Transform(FamilyXref)},
	Children: []Entry{
		{Tag: "HUSB", Node: Field{Name: "husband", Format: Transform(IndividualXref)}},
		{Tag: "WIFE", Node: Field{Name: "wife", Format: Transform(IndividualXref)}},
		{Tag: "CHIL", Node: Field{Name: "children", Format: Transform(IndividualXref)}},
		{Tag: "MARR", Node: Composite{
			Children: []Entry{
				{Tag: "DATE", Node: Field{Name: "marriage_date", Format: Transform(FormatDate)}},
				{Tag: "PLAC", Node: Field{Name: "marriage_place"}},
			},
		}},
	},
}

// HeaderTemplate renders the HEAD record.
var HeaderTemplate = Composite{
	Children: []Entry{
		{Tag: "SOUR", Node: Composite{
			Data: Field{Name: "source"},
			Children: []Entry{
				{Tag: "VERS", Node: Field{Name: "version"}},
			},
		}},
		{Tag: "DATE", Node: Field{Name: "date"}},
		{Tag: "GEDC", Node: Composite{
			Children: []Entry{
				{Tag: "VERS", Node: Literal("5.5.1")},
				{Tag: "FORM", Node: Literal("LINEAGE-LINKED")},
			},
		}},
		{Tag: "CHAR", Node: Literal("UTF-8")},
		{Tag: "NOTE", Node: Field{Name: "note"}},
	},
}

// individual exposes a person plus the values only the crowd knows.
type individual struct {
	*person.Person
	crowd *crowd.Crowd
}

func (i individual) Lookup(name string) (any, bool) {
	switch name {
	case "gedcom_name":
		return gedcomName(i.Person), true
	case "given_names":
		return joinKnown(i.FirstName, i.MiddleName), true
	case "spouse_families":
		return i.crowd.SpouseFamilies(i.ID), true
	case "deceased":
		// The bare flag only stands in for missing death details.
		if known(i.DeathDate) || known(i.DeathPlace) {
			return nil, true
		}
		return i.IsAlive, true
	}
	return i.Person.Lookup(name)
}

// gedcomName builds "Given Names /Surname/".
func gedcomName(p *person.Person) string {
	given := joinKnown(p.FirstName, p.MiddleName)
	last := p.LastName
	if last == person.NoData {
		last = ""
	}
	switch {
	case last != "":
		return joinKnown(given, "/"+last+"/")
	case given != "":
		return given
	}
	return p.Name()
}

func known(s string) bool {
	return !person.IsBlank(s) && !person.IsNoData(s)
}

func joinKnown(parts ...string) string {
	var kept []string
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" && s != person.NoData {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

// family exposes a grouped family. Member ids are only returned for people
// present in the crowd, since only they get an INDI record.
type family struct {
	*crowd.Family
	crowd *crowd.Crowd
}

func (f family) present(id string) string {
	if _, ok := f.crowd.Get(id); !ok {
		return ""
	}
	return id
}

func (f family) Lookup(name string) (any, bool) {
	switch name {
	case "key":
		return f.Key, true
	case "husband":
		return f.present(f.Husband), true
	case "wife":
		return f.present(f.Wife), true
	case "children":
		var ids []string
		for _, id := range f.ChildIDs() {
			if f.present(id) != "" {
				ids = append(ids, id)
			}
		}
		return ids, true
	case "marriage_date":
		return f.MarriageDate, true
	case "marriage_place":
		return f.MarriagePlace, true
	}
	return nil, false
}

// RenderIndividual renders p as an INDI record. c supplies spouse families.
func RenderIndividual(c *crowd.Crowd, p *person.Person) ([]Line, error) {
	return Render(individual{Person: p, crowd: c}, "INDI", IndividualTemplate)
}

// RenderFamily renders f as a FAM record. Members missing from c are left
// out.
func RenderFamily(c *crowd.Crowd, f *crowd.Family) ([]Line, error) {
	return Render(family{Family: f, crowd: c}, "FAM", FamilyTemplate)
}
