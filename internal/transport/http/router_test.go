package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"screener/internal/platform/metrics"
	"screener/pkg/testutil"
)

type echoRoutes struct{}

func (echoRoutes) Register(r chi.Router) {
	r.Post("/echo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter() http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(RouterConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	}, echoRoutes{})
}

func TestRouter(t *testing.T) {
	router := newTestRouter()

	t.Run("health", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("metrics exposes http counters", func(t *testing.T) {
		testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "screener_http_requests_total")
	})

	t.Run("registered routes require json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", nil)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnsupportedMediaType)

		rr = testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/echo", "{}"))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/nope", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
