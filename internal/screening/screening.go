// Package screening defines the query and result types shared by the
// matcher, the aggregating service and the HTTP handler.
package screening

import (
	"math"
	"strings"
	"time"

	dErrors "screener/pkg/domain-errors"
)

const (
	// DaysPerMonth converts a month-based DOB range into days.
	DaysPerMonth = 30

	// DefaultDOBWindowDays applies when a query carries a DOB but no range.
	DefaultDOBWindowDays = 400

	maxNameLength = 256
)

// Query is a validated screening request.
type Query struct {
	Name          string
	Country       string
	MinScore      int // percentage, 0..100
	DOB           *time.Time
	DOBWindowDays int
}

// QueryInput carries raw request values before validation.
type QueryInput struct {
	Name           string
	Country        string
	MinScore       *float64
	DOB            *time.Time
	DOBMonthsRange *int
}

// NewQuery validates in and converts it into a Query. The min score fraction
// is scaled to the nearest integer percentage.
func NewQuery(in QueryInput) (Query, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Query{}, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > maxNameLength {
		return Query{}, dErrors.New(dErrors.CodeValidation, "name must be at most 256 characters")
	}
	if in.MinScore == nil {
		return Query{}, dErrors.New(dErrors.CodeValidation, "min_score is required")
	}
	score := *in.MinScore
	if math.IsNaN(score) || score < 0 || score > 1 {
		return Query{}, dErrors.New(dErrors.CodeValidation, "min_score must be between 0 and 1")
	}

	q := Query{
		Name:     name,
		Country:  strings.TrimSpace(in.Country),
		MinScore: int(math.Round(score * 100)),
	}

	if in.DOB != nil {
		dob := in.DOB.UTC()
		q.DOB = &dob
		q.DOBWindowDays = DefaultDOBWindowDays
		if in.DOBMonthsRange != nil {
			if *in.DOBMonthsRange < 0 {
				return Query{}, dErrors.New(dErrors.CodeValidation, "dob_months_range must not be negative")
			}
			q.DOBWindowDays = *in.DOBMonthsRange * DaysPerMonth
		}
	}
	return q, nil
}

// DOBWindow returns the inclusive birth-date range for the query. ok is false
// when the query carries no DOB.
func (q Query) DOBWindow() (start, end time.Time, ok bool) {
	if q.DOB == nil {
		return time.Time{}, time.Time{}, false
	}
	span := time.Duration(q.DOBWindowDays) * 24 * time.Hour
	return q.DOB.Add(-span), q.DOB.Add(span), true
}

// Match is one candidate that satisfied every predicate of a query.
type Match struct {
	Source       string
	EntityID     string
	Name         string
	Country      string
	BirthDate    *time.Time
	NameScore    int
	CountryScore *int
}

// SourceFailure names a source that could not contribute to a result.
type SourceFailure struct {
	Source string
	Reason string
}

// Result is the merged outcome of screening one query across all sources.
type Result struct {
	TotalHits     int
	Hits          []Match
	FailedSources []SourceFailure
}

// Partial reports whether at least one source failed.
func (r *Result) Partial() bool {
	return len(r.FailedSources) > 0
}
