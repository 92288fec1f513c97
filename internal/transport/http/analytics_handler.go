package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/exporter"
	"contractpulse/internal/middleware"
	"contractpulse/pkg/contracts/domain"
)

// AnalyticsHandler serves compliance analytics
type AnalyticsHandler struct {
	service      AnalyticsService
	defaultMode  domain.ComplianceMode
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler. Requests without a
// mode parameter use defaultMode.
func NewAnalyticsHandler(service AnalyticsService, defaultMode domain.ComplianceMode, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	if !defaultMode.Valid() {
		defaultMode = domain.ModeBonus
	}
	return &AnalyticsHandler{
		service:      service,
		defaultMode:  defaultMode,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "analytics")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.Get)
	r.Get("/export.csv", h.Export)

	return r
}

// Get handles GET /api/analytics?mode=BONUS|GIF&date=DD/MM/YYYY
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// Export handles GET /api/analytics/export.csv
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteAnalytics(&buf, result); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	filename := fmt.Sprintf("analytics-%s-%s.csv", strings.ToLower(string(result.Mode)), time.Now().Format("20060102"))
	writeCSV(w, filename, buf.Bytes())
}

func (h *AnalyticsHandler) compute(w http.ResponseWriter, r *http.Request) (domain.AnalyticsResult, bool) {
	mode, ok := h.query.ValidateMode(w, r, "mode", h.defaultMode)
	if !ok {
		return domain.AnalyticsResult{}, false
	}
	ref, ok := h.query.ValidateDate(w, r, "date")
	if !ok {
		return domain.AnalyticsResult{}, false
	}

	result, err := h.service.Analytics(r.Context(), mode, ref)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.AnalyticsResult{}, false
	}

	h.logger.DebugContext(r.Context(), "analytics computed",
		slog.String("mode", string(mode)),
		slog.Int("zones", len(result.PerZone)))
	return result, true
}
