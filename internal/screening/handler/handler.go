package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"screener/internal/screening"
	"screener/internal/screening/service"
	"screener/pkg/platform/httputil"
	"screener/pkg/requestcontext"
)

// Service defines the interface for screening operations.
type Service interface {
	Screen(ctx context.Context, q screening.Query) (*screening.Result, error)
	Sources() []service.SourceStatus
}

// Handler wires screening endpoints to the screening service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a screening handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts screening endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/screen_entity", h.HandleScreen)
	r.Get("/sources", h.HandleSources)
}

// HandleScreen handles POST /screen_entity requests.
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ScreenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	q := req.ParsedQuery()

	result, err := h.service.Screen(ctx, q)
	if err != nil {
		h.logger.ErrorContext(ctx, "screening failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entity screened",
		"request_id", requestID,
		"min_score", q.MinScore,
		"total_hits", result.TotalHits,
		"failed_sources", len(result.FailedSources),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleSources handles GET /sources requests.
func (h *Handler) HandleSources(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromSources(h.service.Sources(), requestcontext.Now(r.Context())))
}
