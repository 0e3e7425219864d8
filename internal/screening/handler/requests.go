package handler

import (
	"strings"
	"time"

	"screener/internal/screening"
	dErrors "screener/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// ScreenRequest is the HTTP request body for POST /screen_entity.
type ScreenRequest struct {
	Query QueryRequest `json:"query"`

	// Parsed value (populated by Validate)
	parsed screening.Query
}

// QueryRequest holds the screening criteria.
type QueryRequest struct {
	Name           string   `json:"name"`
	Country        string   `json:"country,omitempty"`
	MinScore       *float64 `json:"min_score"`
	DOB            *string  `json:"dob,omitempty"`
	DOBMonthsRange *int     `json:"dob_months_range,omitempty"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ScreenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	in := screening.QueryInput{
		Name:           r.Query.Name,
		Country:        r.Query.Country,
		MinScore:       r.Query.MinScore,
		DOBMonthsRange: r.Query.DOBMonthsRange,
	}
	if r.Query.DOB != nil && strings.TrimSpace(*r.Query.DOB) != "" {
		dob, err := parseDOB(strings.TrimSpace(*r.Query.DOB))
		if err != nil {
			return err
		}
		in.DOB = &dob
	}

	q, err := screening.NewQuery(in)
	if err != nil {
		return err
	}
	r.parsed = q
	return nil
}

// ParsedQuery returns the validated query.
func (r *ScreenRequest) ParsedQuery() screening.Query {
	return r.parsed
}

// parseDOB accepts an ISO-8601 timestamp or a plain calendar date.
func parseDOB(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, nil
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, "dob must be an ISO-8601 date or timestamp")
}
