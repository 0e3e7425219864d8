// Package e2e runs the Gherkin scenarios in features/ against an in-process
// screening service fed by fixture publishers.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"screener/internal/app"
	"screener/internal/platform/config"
	"screener/pkg/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	upstream *testutil.Upstream
	server   *httptest.Server
	app      *app.App

	lastStatus int
	lastBody   []byte
}

// NewTestContext starts the fixture publishers. The service itself starts
// when a scenario asks for it so sources can be broken beforehand.
func NewTestContext() *TestContext {
	return &TestContext{upstream: testutil.NewUpstream()}
}

// Close stops the service and the fixture publishers.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
	tc.upstream.Close()
}

// SetSourceFailing makes the publisher of a source answer 503.
func (tc *TestContext) SetSourceFailing(name string, failing bool) error {
	switch name {
	case "us_sdn":
		tc.upstream.SetFailing("/sdn.csv", failing)
	case "eu":
		tc.upstream.SetFailing("/rss", failing)
	default:
		return fmt.Errorf("unknown source %q", name)
	}
	return nil
}

// StartService wires the service against the fixture publishers and runs
// the startup load. It returns the number of sources that loaded.
func (tc *TestContext) StartService(ctx context.Context) (int, error) {
	sources := config.DefaultSources()
	sources[0].URL = tc.upstream.SDNURL()
	sources[1].FeedURL = tc.upstream.FeedURL()
	cfg := &config.Config{
		QueryTimeout:    5 * time.Second,
		RefreshInterval: time.Hour,
		FetchTimeout:    5 * time.Second,
		Sources:         sources,
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(cfg, logger, prometheus.NewRegistry(), tc.upstream.Client())
	if err != nil {
		return 0, err
	}
	tc.app = a
	loaded := a.Load(ctx)
	tc.server = httptest.NewServer(a.Handler)
	return loaded, nil
}

// RefreshSource runs one refresh cycle of the named source.
func (tc *TestContext) RefreshSource(ctx context.Context, name string) error {
	if tc.app == nil {
		return fmt.Errorf("service is not running")
	}
	for _, r := range tc.app.Refreshers {
		if r.Name() == name {
			return r.Load(ctx)
		}
	}
	return fmt.Errorf("unknown source %q", name)
}

// POST sends body as JSON to path.
func (tc *TestContext) POST(path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(payload))
}

// GET requests path.
func (tc *TestContext) GET(path string, _ map[string]string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	if tc.server == nil {
		return fmt.Errorf("service is not running")
	}
	req, err := http.NewRequest(method, tc.server.URL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// LastStatus returns the status code of the last response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.lastBody, &data); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// DecodeResponse unmarshals the last response into v.
func (tc *TestContext) DecodeResponse(v interface{}) error {
	return json.Unmarshal(tc.lastBody, v)
}
