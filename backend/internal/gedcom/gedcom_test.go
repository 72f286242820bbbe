package gedcom

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
)

func lines(t *testing.T, ls []Line) []string {
	t.Helper()
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   any
		want []string
	}{
		{"1980-05-02", []string{"2 MAY 1980"}},
		{"1980-12-00", []string{"DEC 1980"}},
		{"1980-00-00", []string{"1980"}},
		{"0000-03-15", []string{"15 MAR"}},
		{"0000-05-00", []string{"MAY"}},
		{"1980-02-29", []string{"29 FEB 1980"}},
		{"0000-02-29", []string{"29 FEB"}},
		{"0000-00-00", nil},
		{person.Date{Year: 1901, Month: 1, Day: 31}, []string{"31 JAN 1901"}},
		{&person.Date{Year: 1850}, []string{"1850"}},
		{(*person.Date)(nil), nil},
	}
	for _, tt := range tests {
		got, err := FormatDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatDate_Faults(t *testing.T) {
	for _, in := range []any{"May 2 1980", "1980-5-2", "1980-13-01", "1980-01-32", "1970-02-31", "1981-02-29", "1980-04-31", "1980-00-15", 1980} {
		_, err := FormatDate(in)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeRender), in)
	}
}

func TestRenderIndividual_NameAndBirth(t *testing.T) {
	c := crowd.New(nil)
	require.NoError(t, c.Cache(&person.Person{ID: "p1", FirstName: "Jane", LastName: "Doe", Gender: "female", BirthDate: "1980-05-02", BirthPlace: "Oslo"}))
	p, _ := c.Get("p1")

	got, err := RenderIndividual(c, p)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0 @Ip1@ INDI",
		"1 NAME Jane /Doe/",
		"2 GIVN Jane",
		"2 SURN Doe",
		"1 SEX F",
		"1 BIRT",
		"2 DATE 2 MAY 1980",
		"2 PLAC Oslo",
		"1 REFN p1",
	}, lines(t, got))
}

func TestRenderIndividual_OmitsAbsentEvents(t *testing.T) {
	c := crowd.New(nil)
	require.NoError(t, c.Cache(&person.Person{ID: "p1", FirstName: "Jane", BirthDate: "1980-05-02", DeathPlace: person.NoData}))
	p, _ := c.Get("p1")

	got, err := RenderIndividual(c, p)
	require.NoError(t, err)

	text := strings.Join(lines(t, got), "\n")
	assert.Contains(t, text, "1 NAME Jane")
	assert.Contains(t, text, "2 DATE 2 MAY 1980")
	assert.NotContains(t, text, "DEAT")
	assert.NotContains(t, text, "BURI")
	assert.NotContains(t, text, "SEX")
}

func TestRenderIndividual_DeceasedWithoutDetails(t *testing.T) {
	alive := false
	c := crowd.New(nil)
	require.NoError(t, c.Cache(&person.Person{ID: "p1", FirstName: "Per", IsAlive: &alive, BurialPlace: "Vang"}))
	p, _ := c.Get("p1")

	got, err := RenderIndividual(c, p)
	require.NoError(t, err)
	assert.Subset(t, lines(t, got), []string{"1 DEAT Y", "1 BURI", "2 PLAC Vang"})
}

func TestRenderIndividual_DeathDetailsReplaceFlag(t *testing.T) {
	alive := false
	c := crowd.New(nil)
	require.NoError(t, c.Cache(&person.Person{ID: "p1", FirstName: "Per", IsAlive: &alive, DeathDate: "1990-01-02"}))
	p, _ := c.Get("p1")

	got, err := RenderIndividual(c, p)
	require.NoError(t, err)
	out := lines(t, got)
	assert.Contains(t, out, "1 DEAT")
	assert.NotContains(t, out, "1 DEAT Y")
	assert.Contains(t, out, "2 DATE 2 JAN 1990")
}

func TestRenderIndividual_MalformedDateFails(t *testing.T) {
	c := crowd.New(nil)
	require.NoError(t, c.Cache(&person.Person{ID: "p1", DeathDate: "sometime"}))
	p, _ := c.Get("p1")

	_, err := RenderIndividual(c, p)
	var fault *apperrors.ErrDateFormatFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "sometime", fault.Value)
}

func TestRenderIndividual_NoteFromHTML(t *testing.T) {
	c := crowd.New(nil)
	require.NoError(t, c.Cache(&person.Person{ID: "p1", AboutMe: "<p>Farmer at <b>Nordre</b></p><script>x()</script><p>Emigrated 1880</p>"}))
	p, _ := c.Get("p1")

	got, err := RenderIndividual(c, p)
	require.NoError(t, err)
	assert.Contains(t, lines(t, got), "1 NOTE Farmer at Nordre Emigrated 1880")
}

func TestRender_ListsBecomeSiblingLines(t *testing.T) {
	tmpl := Composite{
		Children: []Entry{
			{Tag: "CHIL", Node: Field{Name: "kids", Format: Transform(IndividualXref)}},
			{Tag: "NOTE", Node: Field{Name: "note", Format: Format("<%s>")}},
			{Tag: "EMPTY", Node: Composite{Children: []Entry{{Tag: "X", Node: Field{Name: "missing"}}}}},
		},
	}
	got, err := Render(Values{"kids": []string{"b", "a"}, "note": "hi"}, "FAM", tmpl)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0 FAM",
		"1 CHIL @Ib@",
		"1 CHIL @Ia@",
		"1 NOTE <hi>",
	}, lines(t, got))
}

func TestRender_EmptyRecordOmitted(t *testing.T) {
	got, err := Render(Values{}, "X", Composite{Children: []Entry{{Tag: "Y", Node: Field{Name: "nope"}}}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestXrefToken(t *testing.T) {
	got, err := FamilyXref("6000-12x?")
	require.NoError(t, err)
	assert.Equal(t, []string{"@F6000_12x_@"}, got)
}

func TestWrite_Document(t *testing.T) {
	c := crowd.New(nil)
	for _, p := range []person.Person{
		{ID: "f", FirstName: "John", LastName: "Doe", Gender: "male", Spouses: []string{"m"}},
		{ID: "m", FirstName: "Mary", Gender: "female"},
		{ID: "k1", FirstName: "Ann", Father: "f", Mother: "m", BirthDate: "1970-01-01"},
		{ID: "k2", FirstName: "Bob", Father: "f", Mother: "m", BirthDate: "1965-06-15"},
	} {
		require.NoError(t, c.Cache(&p))
	}
	c.AddUnion(person.RawUnion{Partners: []string{"f", "m"}, MarriageDate: &person.Date{Year: 1960, Month: 6, Day: 4}})

	var buf bytes.Buffer
	err := Write(&buf, c, Options{Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "0 HEAD", out[0])
	assert.Contains(t, out, "1 SOUR gedgraph")
	assert.Contains(t, out, "1 DATE 9 MAR 2024")
	assert.Equal(t, "0 TRLR", out[len(out)-1])

	text := buf.String()
	assert.Contains(t, text, strings.Join([]string{
		"0 @Ffxm@ FAM",
		"1 HUSB @If@",
		"1 WIFE @Im@",
		"1 CHIL @Ik2@",
		"1 CHIL @Ik1@",
		"1 MARR",
		"2 DATE 4 JUN 1960",
	}, "\n"))
	assert.Contains(t, text, "0 @Ik1@ INDI\n1 NAME Ann\n2 GIVN Ann\n1 BIRT\n2 DATE 1 JAN 1970\n1 FAMC @Ffxm@\n")
	assert.Contains(t, text, "1 FAMS @Ffxm@")
	assert.Less(t, strings.Index(text, "@If@ INDI"), strings.Index(text, "@Ik1@ INDI"))
	assert.Less(t, strings.Index(text, "@Im@ INDI"), strings.Index(text, "@Ffxm@ FAM"))
}

func TestWrite_PointersResolve(t *testing.T) {
	// The top generation names parents that were never fetched.
	c := crowd.New(nil)
	for _, p := range []person.Person{
		{ID: "s", FirstName: "Siri", Father: "f", Mother: "m"},
		{ID: "f", FirstName: "Finn", Father: "gf", Mother: "gm"},
		{ID: "m", FirstName: "Mari"},
	} {
		require.NoError(t, c.Cache(&p))
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c, Options{}))
	text := buf.String()

	defined := map[string]bool{}
	for _, m := range regexp.MustCompile(`(?m)^0 (@[IF][^@]*@) (?:INDI|FAM)$`).FindAllStringSubmatch(text, -1) {
		defined[m[1]] = true
	}
	for _, m := range regexp.MustCompile(`(?m)^\d+ (?:HUSB|WIFE|CHIL|FAMC|FAMS) (@[^@]*@)$`).FindAllStringSubmatch(text, -1) {
		assert.True(t, defined[m[1]], "dangling pointer %s", m[1])
	}

	assert.Contains(t, text, "0 @Fgfxgm@ FAM\n1 CHIL @If@\n")
	assert.NotContains(t, text, "@Igf@")
	assert.NotContains(t, text, "@Igm@")
	assert.Contains(t, text, "0 @Ffxm@ FAM\n1 HUSB @If@\n1 WIFE @Im@\n1 CHIL @Is@\n")
}
