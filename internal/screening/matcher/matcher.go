package matcher

import (
	"context"
	"strings"
	"time"

	"screener/internal/screening"
	"screener/internal/screening/dataset"
)

// ctxCheckInterval is how many candidates are scored between context checks.
const ctxCheckInterval = 512

// Match scores every candidate against q and returns those that pass, in
// candidate order. Thresholds are inclusive: a score equal to q.MinScore
// passes. Country is only scored when the query has one, and a candidate
// without a country or birth date cannot satisfy a country or DOB
// constraint.
func Match(ctx context.Context, q screening.Query, candidates []dataset.Candidate, source string) ([]screening.Match, error) {
	name := strings.ToLower(q.Name)
	country := strings.ToLower(q.Country)
	start, end, checkDOB := q.DOBWindow()

	var hits []screening.Match
	for i := range candidates {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c := &candidates[i]

		if checkDOB && !inWindow(c.BirthDate, start, end) {
			continue
		}

		var countryScore *int
		if country != "" {
			if c.MatchCountry() == "" {
				continue
			}
			score := Ratio(country, c.MatchCountry())
			if score < q.MinScore {
				continue
			}
			countryScore = &score
		}

		nameScore := PartialRatio(name, c.MatchName())
		if nameScore < q.MinScore {
			continue
		}

		hits = append(hits, screening.Match{
			Source:       source,
			EntityID:     c.EntityID,
			Name:         c.Name,
			Country:      c.Country,
			BirthDate:    c.BirthDate,
			NameScore:    nameScore,
			CountryScore: countryScore,
		})
	}
	return hits, nil
}

func inWindow(birthDate *time.Time, start, end time.Time) bool {
	if birthDate == nil {
		return false
	}
	return !birthDate.Before(start) && !birthDate.After(end)
}
