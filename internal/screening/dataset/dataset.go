// Package dataset holds immutable sanctions-list snapshots and the store that
// publishes them to concurrent readers.
package dataset

import (
	"strings"
	"time"
)

// Record is one row of a reference list after column mapping. Records are
// never modified once a Dataset has been built from them.
type Record struct {
	EntityID  string
	Name      string
	Country   string
	BirthDate *time.Time
	Fields    map[string]string
}

// Candidate is the unit the matcher scores. Ungrouped sources produce one
// candidate per record; grouped sources produce one per entity.
type Candidate struct {
	EntityID  string
	Names     []string
	Name      string // display form, Names joined by NameSeparator
	Country   string
	BirthDate *time.Time

	matchName    string
	matchCountry string
}

// NameSeparator joins the name variants of a grouped candidate.
const NameSeparator = " | "

// NewCandidate builds a candidate and precomputes its lowercase match keys.
func NewCandidate(entityID string, names []string, country string, birthDate *time.Time) Candidate {
	display := strings.Join(names, NameSeparator)
	return Candidate{
		EntityID:     entityID,
		Names:        names,
		Name:         display,
		Country:      country,
		BirthDate:    birthDate,
		matchName:    strings.ToLower(display),
		matchCountry: strings.ToLower(country),
	}
}

// MatchName is the lowercase name string scored against queries.
func (c Candidate) MatchName() string {
	return c.matchName
}

// MatchCountry is the lowercase resolved country, empty when unknown.
func (c Candidate) MatchCountry() string {
	return c.matchCountry
}

// Dataset is an immutable snapshot of one source.
type Dataset struct {
	Source     string
	LoadedAt   time.Time
	Records    []Record
	Candidates []Candidate
}

// New assembles a snapshot. Callers hand over ownership of both slices.
func New(source string, loadedAt time.Time, records []Record, candidates []Candidate) *Dataset {
	return &Dataset{
		Source:     source,
		LoadedAt:   loadedAt,
		Records:    records,
		Candidates: candidates,
	}
}

// Len returns the number of candidates available for matching.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Candidates)
}
