package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractpulse/internal/importer"
	"contractpulse/internal/sheet"
	"contractpulse/pkg/contracts/domain"
)

func newTestHandler(includeStack bool) (*ErrorHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewErrorHandler(logger, includeStack), &buf
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unsupported format",
			err:        &sheet.UnsupportedFormatError{Filename: "a.pdf", Extension: ".pdf"},
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedFormat,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, ".pdf", body["extension"])
				assert.Len(t, body["accepted"], 3)
			},
		},
		{
			name:       "empty result",
			err:        &importer.EmptyResultError{DuplicateRows: 4, SkippedRows: 1, ScannedRows: 5},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEmptyResult,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(0), body["valid_row_count"])
				assert.Equal(t, float64(4), body["duplicate_row_count"])
			},
		},
		{
			name:       "malformed sheet",
			err:        &sheet.MalformedSheetError{Filename: "a.xlsx", Cause: fmt.Errorf("zip: not a valid zip file")},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeMalformedSheet,
		},
		{
			name:       "wrapped zone not found",
			err:        fmt.Errorf("zone SP-0001: %w", domain.ErrZoneNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   TypeZoneNotFound,
		},
		{
			name:       "no zones",
			err:        domain.ErrNoZones,
			wantStatus: http.StatusConflict,
			wantType:   TypeNoZones,
		},
		{
			name:       "validation api error",
			err:        ErrValidation("mode", "must be one of BONUS GIF"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
				errs, ok := body["errors"].([]interface{})
				require.True(t, ok)
				assert.Len(t, errs, 1)
			},
		},
		{
			name:       "payload too large",
			err:        &http.MaxBytesError{Limit: 10},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(false)
			req := httptest.NewRequest(http.MethodPost, "/api/imports", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/imports", body["instance"])
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	h, logs := newTestHandler(false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, logs.Len())
}

func TestErrorHandler_StackOnlyForServerErrors(t *testing.T) {
	h, _ := newTestHandler(true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), fmt.Errorf("boom"))
	assert.Contains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), domain.ErrZoneNotFound)
	assert.NotContains(t, decodeProblem(t, rec), "stack")
}

func TestRecoveryMiddleware(t *testing.T) {
	h, logs := newTestHandler(false)
	handler := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zones", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec)["type"])
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/zones", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "PATCH")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "", "").
		WithExtension("status", 999).
		WithExtension("hint", "retry")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusConflict), body["status"], "standard members win over extensions")
	assert.Equal(t, "retry", body["hint"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrRateLimitExceeded)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}
