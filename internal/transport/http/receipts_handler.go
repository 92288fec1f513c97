package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/middleware"
	"contractpulse/internal/receipts"
)

// maxReceiptsPerRequest bounds a single registration batch
const maxReceiptsPerRequest = 1000

// RegisterReceiptsRequest is the body of POST /api/receipts
type RegisterReceiptsRequest struct {
	Receipts []receipts.Submission `json:"receipts"`
}

// DeleteReceiptsRequest is the body of DELETE /api/receipts
type DeleteReceiptsRequest struct {
	IDs []string `json:"ids"`
}

// ReceiptsHandler manages the receipt ledger over HTTP
type ReceiptsHandler struct {
	service      ReceiptService
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReceiptsHandler creates a new receipts handler
func NewReceiptsHandler(service ReceiptService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReceiptsHandler {
	return &ReceiptsHandler{
		service:      service,
		validator:    middleware.NewValidator(logger),
		logger:       logger.With(slog.String("handler", "receipts")),
		errorHandler: errorHandler,
	}
}

// Routes returns the receipt routes
func (h *ReceiptsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Delete("/", h.Delete)

	return r
}

// List handles GET /api/receipts
func (h *ReceiptsHandler) List(w http.ResponseWriter, r *http.Request) {
	view := h.service.Receipts(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// Register handles POST /api/receipts
func (h *ReceiptsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReceiptsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if len(req.Receipts) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("receipts", "receipts must contain at least one item"))
		return
	}
	if len(req.Receipts) > maxReceiptsPerRequest {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("receipts", "receipts must contain at most 1000 items"))
		return
	}
	if err := h.validator.Slice(req.Receipts); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	added, stats := h.service.RegisterReceipts(r.Context(), req.Receipts)
	h.logger.InfoContext(r.Context(), "receipts registered",
		slog.Int("added", len(added)),
		slog.Int("valid_loads", stats.ValidLoads))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"receipts": added,
			"stats":    stats,
		},
	})
}

// Delete handles DELETE /api/receipts
func (h *ReceiptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteReceiptsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if len(req.IDs) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ids", "ids must contain at least one item"))
		return
	}

	removed, stats := h.service.DeleteReceipts(r.Context(), req.IDs)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"removed": removed,
			"stats":   stats,
		},
	})
}
