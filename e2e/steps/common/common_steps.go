package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	SetSourceFailing(name string, failing bool) error
	StartService(ctx context.Context) (int, error)
	RefreshSource(ctx context.Context, name string) error
	GET(path string, headers map[string]string) error
	LastStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers lifecycle and generic assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Lifecycle
	ctx.Step(`^the "([^"]*)" publisher is unavailable$`, steps.publisherUnavailable)
	ctx.Step(`^the "([^"]*)" publisher recovers$`, steps.publisherRecovers)
	ctx.Step(`^the screening service has started with (\d+) loaded sources?$`, steps.serviceStarted)
	ctx.Step(`^the "([^"]*)" source is refreshed$`, steps.sourceRefreshed)
	ctx.Step(`^a refresh of the "([^"]*)" source fails$`, steps.sourceRefreshFails)

	// Generic requests and assertions
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) publisherUnavailable(_ context.Context, name string) error {
	return s.tc.SetSourceFailing(name, true)
}

func (s *commonSteps) publisherRecovers(_ context.Context, name string) error {
	return s.tc.SetSourceFailing(name, false)
}

func (s *commonSteps) serviceStarted(ctx context.Context, want int) error {
	loaded, err := s.tc.StartService(ctx)
	if err != nil {
		return err
	}
	if loaded != want {
		return fmt.Errorf("expected %d loaded sources, got %d", want, loaded)
	}
	return nil
}

func (s *commonSteps) sourceRefreshed(ctx context.Context, name string) error {
	return s.tc.RefreshSource(ctx, name)
}

func (s *commonSteps) sourceRefreshFails(ctx context.Context, name string) error {
	if err := s.tc.RefreshSource(ctx, name); err == nil {
		return fmt.Errorf("expected refresh of %s to fail", name)
	}
	return nil
}

func (s *commonSteps) get(_ context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}
