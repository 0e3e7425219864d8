// Package grouper collapses raw list rows that describe the same entity
// (aliases, extra addresses) into a single matchable candidate.
package grouper

import (
	"time"

	"screener/internal/screening/dataset"
	pstrings "screener/pkg/platform/strings"
)

// Identity turns every record into its own candidate. Used for sources that
// already publish one row per entity.
func Identity(records []dataset.Record) []dataset.Candidate {
	out := make([]dataset.Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, dataset.NewCandidate(r.EntityID, pstrings.DedupeAndTrim([]string{r.Name}), r.Country, r.BirthDate))
	}
	return out
}

type group struct {
	id      string
	records []*dataset.Record
}

// Group returns one candidate per distinct entity id, in order of the id's
// first appearance. Records without an id stand alone. The input slice is
// only read.
//
// Per group:
//   - names are deduplicated, first occurrence wins, joined for display
//   - country is the most frequent non-empty per-record country; ties go to
//     the lexicographically smallest value
//   - birth date is the most frequent non-missing date; ties go to the
//     earliest date
func Group(records []dataset.Record) []dataset.Candidate {
	var groups []*group
	byID := make(map[string]*group)

	for i := range records {
		r := &records[i]
		if r.EntityID == "" {
			groups = append(groups, &group{records: []*dataset.Record{r}})
			continue
		}
		g, ok := byID[r.EntityID]
		if !ok {
			g = &group{id: r.EntityID}
			byID[r.EntityID] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, r)
	}

	out := make([]dataset.Candidate, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.candidate())
	}
	return out
}

func (g *group) candidate() dataset.Candidate {
	names := make([]string, 0, len(g.records))
	countries := make([]string, 0, len(g.records))
	var dates []time.Time
	for _, r := range g.records {
		names = append(names, r.Name)
		countries = append(countries, r.Country)
		if r.BirthDate != nil {
			dates = append(dates, *r.BirthDate)
		}
	}
	return dataset.NewCandidate(g.id, pstrings.DedupeAndTrim(names), ModeCountry(countries), ModeDate(dates))
}

// ModeCountry returns the most frequent non-empty value. Ties are broken by
// picking the lexicographically smallest so the result does not depend on
// row order. Returns "" when no value is present.
func ModeCountry(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		if v = pstrings.FirstNonEmpty(v); v != "" {
			counts[v]++
		}
	}

	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// ModeDate returns the most frequent date, earliest on ties, or nil for an
// empty input.
func ModeDate(dates []time.Time) *time.Time {
	if len(dates) == 0 {
		return nil
	}
	counts := make(map[time.Time]int, len(dates))
	for _, d := range dates {
		counts[d.UTC()]++
	}

	var best time.Time
	bestCount := 0
	for d, n := range counts {
		if n > bestCount || (n == bestCount && d.Before(best)) {
			best, bestCount = d, n
		}
	}
	return &best
}
