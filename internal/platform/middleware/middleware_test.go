package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screener/internal/platform/metrics"
	"screener/pkg/requestcontext"
	ptestutil "screener/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := ptestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))

	ptestutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rr := ptestutil.DoRequest(h, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rr.Header().Get(RequestIDHeader))
	})

	t.Run("assigns id when absent", func(t *testing.T) {
		rr := ptestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	ptestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/sources", nil))

	line := buf.String()
	assert.Contains(t, line, "path=/sources")
	assert.Contains(t, line, "status=418")
	assert.Contains(t, line, "request_id=")
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	h := Timeout(time.Minute)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))

	ptestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusNoContent},
		{"json post with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusNoContent},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing content type", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get ignores content type", http.MethodGet, "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := ptestutil.DoRequest(h, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestLatencyMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/sources", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	ptestutil.DoRequest(r, httptest.NewRequest(http.MethodGet, "/sources", nil))
	ptestutil.DoRequest(r, httptest.NewRequest(http.MethodGet, "/sources", nil))

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/sources", "GET", "200")))
}

func TestLatencyMiddleware_NilMetrics(t *testing.T) {
	h := LatencyMiddleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	assert.NotPanics(t, func() {
		ptestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	})
}
