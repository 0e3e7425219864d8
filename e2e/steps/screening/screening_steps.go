package screening

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	DecodeResponse(v interface{}) error
}

// RegisterSteps registers screening-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &screeningSteps{tc: tc}

	// Query steps
	ctx.Step(`^I screen "([^"]*)" with min score ([\d.]+)$`, steps.screen)
	ctx.Step(`^I screen "([^"]*)" in "([^"]*)" with min score ([\d.]+)$`, steps.screenWithCountry)
	ctx.Step(`^I screen "([^"]*)" born on "([^"]*)" within (\d+) months with min score ([\d.]+)$`, steps.screenWithDOB)
	ctx.Step(`^I screen with body:$`, steps.screenWithBody)

	// Result steps
	ctx.Step(`^there should be (\d+) hits?$`, steps.hitCount)
	ctx.Step(`^hit (\d+) should be "([^"]*)" from "([^"]*)"$`, steps.hitShouldBe)
	ctx.Step(`^hit (\d+) should have country "([^"]*)" and dob "([^"]*)"$`, steps.hitAttributes)
	ctx.Step(`^source "([^"]*)" should be reported as failed with reason "([^"]*)"$`, steps.sourceFailed)
	ctx.Step(`^no source should be reported as failed$`, steps.noFailures)
}

type screeningSteps struct {
	tc TestContext
}

type hit struct {
	Source  string `json:"source"`
	Name    string `json:"name"`
	Country string `json:"country"`
	DOB     string `json:"dob"`
}

type failure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

type screenResponse struct {
	TotalHits     int       `json:"total_hits"`
	Hits          []hit     `json:"hits"`
	FailedSources []failure `json:"failed_sources"`
}

func (s *screeningSteps) post(query map[string]interface{}) error {
	return s.tc.POST("/screen_entity", map[string]interface{}{"query": query})
}

func (s *screeningSteps) screen(_ context.Context, name string, minScore float64) error {
	return s.post(map[string]interface{}{"name": name, "min_score": minScore})
}

func (s *screeningSteps) screenWithCountry(_ context.Context, name, country string, minScore float64) error {
	return s.post(map[string]interface{}{"name": name, "country": country, "min_score": minScore})
}

func (s *screeningSteps) screenWithDOB(_ context.Context, name, dob string, months int, minScore float64) error {
	return s.post(map[string]interface{}{
		"name":             name,
		"dob":              dob,
		"dob_months_range": months,
		"min_score":        minScore,
	})
}

func (s *screeningSteps) screenWithBody(_ context.Context, body *godog.DocString) error {
	var raw interface{}
	if err := json.Unmarshal([]byte(body.Content), &raw); err != nil {
		return err
	}
	return s.tc.POST("/screen_entity", raw)
}

func (s *screeningSteps) response() (*screenResponse, error) {
	var resp screenResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *screeningSteps) hitCount(_ context.Context, want int) error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if resp.TotalHits != want || len(resp.Hits) != want {
		return fmt.Errorf("expected %d hits, got total_hits=%d and %d entries", want, resp.TotalHits, len(resp.Hits))
	}
	return nil
}

func (s *screeningSteps) nthHit(n int) (*hit, error) {
	resp, err := s.response()
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(resp.Hits) {
		return nil, fmt.Errorf("hit %d requested but response has %d hits", n, len(resp.Hits))
	}
	return &resp.Hits[n-1], nil
}

func (s *screeningSteps) hitShouldBe(_ context.Context, n int, name, source string) error {
	h, err := s.nthHit(n)
	if err != nil {
		return err
	}
	if h.Name != name || h.Source != source {
		return fmt.Errorf("expected hit %d to be %q from %q, got %q from %q", n, name, source, h.Name, h.Source)
	}
	return nil
}

func (s *screeningSteps) hitAttributes(_ context.Context, n int, country, dob string) error {
	h, err := s.nthHit(n)
	if err != nil {
		return err
	}
	if h.Country != country || h.DOB != dob {
		return fmt.Errorf("expected hit %d country=%q dob=%q, got country=%q dob=%q", n, country, dob, h.Country, h.DOB)
	}
	return nil
}

func (s *screeningSteps) sourceFailed(_ context.Context, source, reason string) error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	for _, f := range resp.FailedSources {
		if f.Source == source {
			if f.Reason != reason {
				return fmt.Errorf("expected %s to fail with %q, got %q", source, reason, f.Reason)
			}
			return nil
		}
	}
	return fmt.Errorf("source %s not reported as failed: %+v", source, resp.FailedSources)
}

func (s *screeningSteps) noFailures(context.Context) error {
	resp, err := s.response()
	if err != nil {
		return err
	}
	if len(resp.FailedSources) != 0 {
		return fmt.Errorf("expected no failed sources, got %+v", resp.FailedSources)
	}
	return nil
}
