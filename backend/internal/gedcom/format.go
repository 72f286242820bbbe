package gedcom

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gedgraph/backend/internal/person"
	apperrors "gedgraph/backend/pkg/errors"
)

var months = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

var isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// FormatDate renders a calendar date as "[D] [MON] [YYYY]", leaving out
// unknown parts. The all-zero date renders as nothing.
func FormatDate(v any) ([]string, error) {
	var d person.Date
	switch x := v.(type) {
	case person.Date:
		d = x
	case *person.Date:
		if x == nil {
			return nil, nil
		}
		d = *x
	case string:
		m := isoDate.FindStringSubmatch(strings.TrimSpace(x))
		if m == nil {
			return nil, apperrors.NewDateFormatFault(x)
		}
		d.Year, _ = strconv.Atoi(m[1])
		d.Month, _ = strconv.Atoi(m[2])
		d.Day, _ = strconv.Atoi(m[3])
	default:
		return nil, apperrors.NewDateFormatFault(fmt.Sprint(v))
	}

	if d.Month < 0 || d.Month > 12 || d.Day < 0 || d.Day > 31 || d.Year < 0 {
		return nil, apperrors.NewDateFormatFault(d.String())
	}
	if d.IsZero() {
		return nil, nil
	}
	if d.Day > 0 && !validDay(d) {
		return nil, apperrors.NewDateFormatFault(d.String())
	}

	var parts []string
	if d.Day > 0 {
		parts = append(parts, strconv.Itoa(d.Day))
	}
	if d.Month > 0 {
		parts = append(parts, months[d.Month-1])
	}
	if d.Year > 0 {
		parts = append(parts, strconv.Itoa(d.Year))
	}
	return []string{strings.Join(parts, " ")}, nil
}

// validDay checks the day against its month. An unknown year is checked as
// a leap year so that 29 FEB stays renderable.
func validDay(d person.Date) bool {
	if d.Month == 0 {
		return false
	}
	year := d.Year
	if year == 0 {
		year = 2000
	}
	t := time.Date(year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return t.Day() == d.Day
}

// FormatSex maps gender onto M, F or U.
func FormatSex(v any) ([]string, error) {
	switch person.NormalizeGender(fmt.Sprint(v)) {
	case "male":
		return []string{"M"}, nil
	case "female":
		return []string{"F"}, nil
	}
	return []string{"U"}, nil
}

// IndividualXref turns person ids into @I...@ pointers.
func IndividualXref(v any) ([]string, error) {
	return xrefs("I", v), nil
}

// FamilyXref turns family keys into @F...@ pointers.
func FamilyXref(v any) ([]string, error) {
	return xrefs("F", v), nil
}

func xrefs(prefix string, v any) []string {
	var out []string
	for _, id := range stringsOf(v) {
		if id = strings.TrimSpace(id); id == "" || id == person.NoData {
			continue
		}
		out = append(out, "@"+prefix+xrefToken(id)+"@")
	}
	return out
}

// xrefToken keeps an id usable inside a pointer.
func xrefToken(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, id)
}

// FormatDeceased marks a person known to be dead with "Y". Use it where no
// death date or place is rendered.
func FormatDeceased(v any) ([]string, error) {
	if alive, ok := v.(*bool); ok && alive != nil && !*alive {
		return []string{"Y"}, nil
	}
	return nil, nil
}

// FormatHTMLText reduces an HTML fragment to its visible text.
func FormatHTMLText(v any) ([]string, error) {
	html, ok := v.(string)
	if !ok {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse note html: %w", err)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}
