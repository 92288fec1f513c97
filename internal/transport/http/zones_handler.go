package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/exporter"
)

// ZonesHandler serves origin zones and their drill-down detail
type ZonesHandler struct {
	service      ZoneService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewZonesHandler creates a new zones handler
func NewZonesHandler(service ZoneService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ZonesHandler {
	return &ZonesHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "zones")),
		errorHandler: errorHandler,
	}
}

// Routes returns the zone routes
func (h *ZonesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Get("/{zoneID}", h.Detail)
	r.Get("/{zoneID}/export.csv", h.ExportDetail)

	return r
}

// List handles GET /api/zones
func (h *ZonesHandler) List(w http.ResponseWriter, r *http.Request) {
	zones := h.service.Zones(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   zones,
		"count":  len(zones),
	})
}

// Detail handles GET /api/zones/{zoneID}
func (h *ZonesHandler) Detail(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")

	detail, err := h.service.Detail(r.Context(), zoneID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   detail,
	})
}

// ExportDetail handles GET /api/zones/{zoneID}/export.csv
func (h *ZonesHandler) ExportDetail(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")

	detail, err := h.service.Detail(r.Context(), zoneID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteZoneDetail(&buf, detail); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("zone-%s.csv", detail.ZoneID), buf.Bytes())
}

// writeCSV sends a fully rendered CSV body as an attachment
func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
