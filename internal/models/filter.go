package models

import "strings"

// PhysicianFilter is the physician constraint of a query, tagged as either a
// single equality or a membership list. The list form is chosen once, at
// construction, when the raw input carries a semicolon separator.
type PhysicianFilter struct {
	Single string
	Many   []string
}

// ParsePhysicianFilter builds the tagged constraint from raw user input.
// Semicolon-separated input becomes a membership list of the trimmed,
// non-empty tokens; anything else is a trimmed equality.
func ParsePhysicianFilter(raw string) PhysicianFilter {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PhysicianFilter{}
	}
	if !strings.Contains(trimmed, ";") {
		return PhysicianFilter{Single: trimmed}
	}
	var many []string
	for _, tok := range strings.Split(trimmed, ";") {
		if t := strings.TrimSpace(tok); t != "" {
			many = append(many, t)
		}
	}
	return PhysicianFilter{Many: many}
}

// IsMulti reports whether the constraint is a membership list. Multi-group
// reporting follows from this.
func (p PhysicianFilter) IsMulti() bool { return len(p.Many) > 0 }

// IsZero reports whether no physician constraint is present.
func (p PhysicianFilter) IsZero() bool { return p.Single == "" && len(p.Many) == 0 }

// Filter holds the optional constraints of one query. Empty fields mean "no
// constraint", never "match empty". Constraints are conjunctive.
type Filter struct {
	DateFrom    string // YYYY-MM-DD inclusive
	DateTo      string // YYYY-MM-DD inclusive; ignored without DateFrom
	MinDose     string // decimal text, comma tolerated
	MaxDose     string
	Physician   PhysicianFilter
	Exam        string
	MinDuration string // HH:MM:SS, compared lexicographically
	MaxDuration string
	MinDAP      string
	MaxDAP      string
	Room        string
	Sex         string
	PatientID   string
}
