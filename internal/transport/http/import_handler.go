package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "contractpulse/internal/errors"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file
const multipartMemory = 8 << 20

// ImportHandler handles spreadsheet uploads
type ImportHandler struct {
	service      ImportService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewImportHandler creates a new import handler
func NewImportHandler(service ImportService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ImportHandler {
	return &ImportHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "import")),
		errorHandler: errorHandler,
	}
}

// Routes returns the import routes
func (h *ImportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Import)
	return r
}

// Import handles POST /api/imports with a multipart "file" field
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "import received",
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size))

	result, err := h.service.Import(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}
