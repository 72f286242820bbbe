package person

import (
	"fmt"
	"strings"
)

// Date is a calendar date as served remotely. Zero parts are unknown.
type Date struct {
	Year  int `json:"year,omitempty" yaml:"year,omitempty"`
	Month int `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int `json:"day,omitempty" yaml:"day,omitempty"`
}

// IsZero reports a date with no known part.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as zero padded YYYY-MM-DD so that dates sort
// lexicographically.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// RawEvent is a dated, placed life event.
type RawEvent struct {
	Date     *Date  `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
}

// RawRelatives holds the nested relative stubs of a fetched record.
type RawRelatives struct {
	Parents  []Raw `json:"parents,omitempty"`
	Children []Raw `json:"children,omitempty"`
	Siblings []Raw `json:"siblings,omitempty"`
	Spouses  []Raw `json:"spouses,omitempty"`
}

// RawUnion is a marriage between partners.
type RawUnion struct {
	Partners      []string `json:"partners"`
	MarriageDate  *Date    `json:"marriage_date,omitempty"`
	MarriagePlace string   `json:"marriage_place,omitempty"`
}

// Raw is a decoded record from the relative service. Relatives are nested
// stubs which may themselves nest further stubs.
type Raw struct {
	ID          string       `json:"id"`
	FirstName   string       `json:"first_name,omitempty"`
	MiddleName  string       `json:"middle_name,omitempty"`
	LastName    string       `json:"last_name,omitempty"`
	MaidenName  string       `json:"maiden_name,omitempty"`
	Suffix      string       `json:"suffix,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	Gender      string       `json:"gender,omitempty"`
	Birth       *RawEvent    `json:"birth,omitempty"`
	Death       *RawEvent    `json:"death,omitempty"`
	Burial      *RawEvent    `json:"burial,omitempty"`
	IsAlive     *bool        `json:"is_alive,omitempty"`
	AboutMe     string       `json:"about_me,omitempty"`
	Father      string       `json:"father,omitempty"`
	Mother      string       `json:"mother,omitempty"`
	Relatives   RawRelatives `json:"relatives,omitempty"`
	Unions      []RawUnion   `json:"unions,omitempty"`
}

// Nested returns the stubs listed under one edge.
func (r *Raw) Nested(edge EdgeMask) []Raw {
	switch edge {
	case Parents:
		return r.Relatives.Parents
	case Children:
		return r.Relatives.Children
	case Siblings:
		return r.Relatives.Siblings
	case Spouses:
		return r.Relatives.Spouses
	}
	return nil
}

// FromRaw converts a wire record into a Person. Nested stubs become id
// lists; the stubs themselves are not retained.
func FromRaw(r Raw) (*Person, error) {
	p := Person{
		ID:          r.ID,
		FirstName:   r.FirstName,
		MiddleName:  r.MiddleName,
		LastName:    r.LastName,
		MaidenName:  r.MaidenName,
		Suffix:      r.Suffix,
		DisplayName: r.DisplayName,
		Gender:      NormalizeGender(r.Gender),
		IsAlive:     r.IsAlive,
		AboutMe:     r.AboutMe,
		Father:      r.Father,
		Mother:      r.Mother,
		Parents:     stubIDs(r.Relatives.Parents),
		Children:    stubIDs(r.Relatives.Children),
		Siblings:    stubIDs(r.Relatives.Siblings),
		Spouses:     stubIDs(r.Relatives.Spouses),
	}
	p.BirthDate, p.BirthPlace = eventParts(r.Birth)
	p.DeathDate, p.DeathPlace = eventParts(r.Death)
	_, p.BurialPlace = eventParts(r.Burial)

	for _, parent := range r.Relatives.Parents {
		switch {
		case p.Father == "" && NormalizeGender(parent.Gender) == "male":
			p.Father = parent.ID
		case p.Mother == "" && NormalizeGender(parent.Gender) == "female":
			p.Mother = parent.ID
		}
	}

	return New(p)
}

// DateString formats an optional date, empty when unknown.
func DateString(d *Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.String()
}

func eventParts(ev *RawEvent) (string, string) {
	if ev == nil {
		return "", ""
	}
	return DateString(ev.Date), ev.Location
}

func stubIDs(stubs []Raw) []string {
	if len(stubs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(stubs))
	for _, s := range stubs {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// NormalizeGender maps service spellings onto male, female or empty.
func NormalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "male", "m":
		return "male"
	case "female", "f":
		return "female"
	}
	return ""
}
