package handler

import (
	"time"

	"screener/internal/screening"
	"screener/internal/screening/service"
)

// ScreenResponse is the HTTP response for POST /screen_entity.
type ScreenResponse struct {
	TotalHits     int               `json:"total_hits"`
	Hits          []HitResponse     `json:"hits"`
	FailedSources []FailureResponse `json:"failed_sources,omitempty"`
}

// HitResponse is one matched list entry.
type HitResponse struct {
	Source       string `json:"source"`
	Name         string `json:"name"`
	Country      string `json:"country,omitempty"`
	DOB          string `json:"dob,omitempty"`
	EntityID     string `json:"entity_id,omitempty"`
	NameScore    int    `json:"name_score"`
	CountryScore *int   `json:"country_score,omitempty"`
}

// FailureResponse names a source missing from the result.
type FailureResponse struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// FromResult converts a screening result to an HTTP response.
func FromResult(result *screening.Result) *ScreenResponse {
	resp := &ScreenResponse{
		TotalHits: result.TotalHits,
		Hits:      make([]HitResponse, 0, len(result.Hits)),
	}
	for _, m := range result.Hits {
		hit := HitResponse{
			Source:       m.Source,
			Name:         m.Name,
			Country:      m.Country,
			EntityID:     m.EntityID,
			NameScore:    m.NameScore,
			CountryScore: m.CountryScore,
		}
		if m.BirthDate != nil {
			hit.DOB = m.BirthDate.Format(dateLayout)
		}
		resp.Hits = append(resp.Hits, hit)
	}
	for _, f := range result.FailedSources {
		resp.FailedSources = append(resp.FailedSources, FailureResponse{Source: f.Source, Reason: f.Reason})
	}
	return resp
}

// SourcesResponse is the HTTP response for GET /sources.
type SourcesResponse struct {
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse describes one source's live snapshot.
type SourceResponse struct {
	Name        string     `json:"name"`
	Loaded      bool       `json:"loaded"`
	Records     int        `json:"records"`
	Candidates  int        `json:"candidates"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	AgeSeconds  *int64     `json:"age_seconds,omitempty"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// FromSources converts source statuses to an HTTP response. Snapshot age is
// measured against now.
func FromSources(statuses []service.SourceStatus, now time.Time) *SourcesResponse {
	resp := &SourcesResponse{Sources: make([]SourceResponse, 0, len(statuses))}
	for _, st := range statuses {
		sr := SourceResponse{
			Name:        st.Name,
			Loaded:      st.Loaded,
			Records:     st.Records,
			Candidates:  st.Candidates,
			LastAttempt: timePtr(st.LastAttempt),
			LastSuccess: timePtr(st.LastSuccess),
			LastError:   st.LastError,
		}
		if st.Loaded {
			sr.LoadedAt = timePtr(st.LoadedAt)
			age := int64(now.Sub(st.LoadedAt).Seconds())
			sr.AgeSeconds = &age
		}
		resp.Sources = append(resp.Sources, sr)
	}
	return resp
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
