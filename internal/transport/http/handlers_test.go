package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/receipts"
	"contractpulse/internal/services"
	"contractpulse/internal/sheet"
	"contractpulse/pkg/contracts/domain"
)

// MockWorkspaceService is a mock implementation of WorkspaceService
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}

func (m *MockWorkspaceService) Zones(ctx context.Context) []domain.OriginZone {
	args := m.Called(ctx)
	return args.Get(0).([]domain.OriginZone)
}

func (m *MockWorkspaceService) Detail(ctx context.Context, id string) (domain.ZoneDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ZoneDetail), args.Error(1)
}

func (m *MockWorkspaceService) Analytics(ctx context.Context, mode domain.ComplianceMode, ref time.Time) (domain.AnalyticsResult, error) {
	args := m.Called(ctx, mode, ref)
	return args.Get(0).(domain.AnalyticsResult), args.Error(1)
}

func (m *MockWorkspaceService) RegisterReceipts(ctx context.Context, subs []receipts.Submission) ([]domain.Receipt, domain.ReceiptStats) {
	args := m.Called(ctx, subs)
	return args.Get(0).([]domain.Receipt), args.Get(1).(domain.ReceiptStats)
}

func (m *MockWorkspaceService) DeleteReceipts(ctx context.Context, ids []string) ([]domain.Receipt, domain.ReceiptStats) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Receipt), args.Get(1).(domain.ReceiptStats)
}

func (m *MockWorkspaceService) Receipts(ctx context.Context) services.ReceiptsView {
	args := m.Called(ctx)
	return args.Get(0).(services.ReceiptsView)
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *MockHealthChecker) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

var _ WorkspaceService = (*MockWorkspaceService)(nil)

func newTestRouter(svc *MockWorkspaceService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eh := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Mount("/api/imports", NewImportHandler(svc, logger, eh).Routes())
	r.Mount("/api/zones", NewZonesHandler(svc, logger, eh).Routes())
	r.Mount("/api/analytics", NewAnalyticsHandler(svc, domain.ModeBonus, logger, eh).Routes())
	r.Mount("/api/receipts", NewReceiptsHandler(svc, logger, eh).Routes())
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField(field, content))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportHandler(t *testing.T) {
	t.Run("successful import", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Import", mock.Anything, "contracts.csv", mock.Anything).
			Return(&domain.ImportResult{ValidRowCount: 3, RouteCount: 3, HeaderDetected: true}, nil)

		body, contentType := multipartUpload(t, "file", "contracts.csv", "C1;CAMPINAS;RJ;Ana;;100;;40\n")
		req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "success", resp["status"])
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, float64(3), data["route_count"])
		svc.AssertExpectations(t)
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		body, contentType := multipartUpload(t, "note", "", "no file here")
		req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_FILE", decodeBody(t, rec)["error_code"])
		svc.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not multipart", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeBody(t, rec)["error_code"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Import", mock.Anything, "contracts.pdf", mock.Anything).
			Return(nil, &sheet.UnsupportedFormatError{Filename: "contracts.pdf", Extension: ".pdf"})

		body, contentType := multipartUpload(t, "file", "contracts.pdf", "%PDF")
		req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, apierrors.TypeUnsupportedFormat, resp["type"])
		assert.Equal(t, ".pdf", resp["extension"])
	})
}

func TestZonesHandler(t *testing.T) {
	zones := []domain.OriginZone{
		{ID: "CAM-0001", Name: "CAMPINAS", Programmer: "Ana"},
		{ID: "SAN-0002", Name: "SANTOS", Programmer: domain.UnassignedProgrammer},
	}
	detail := domain.ZoneDetail{
		ZoneID: "CAM-0001",
		Name:   "CAMPINAS",
		Routes: []domain.RouteAnalytics{
			{RouteContract: domain.RouteContract{ID: "C1", Origin: "CAMPINAS", Destination: "RIO DE JANEIRO", ContractedVolume: 100, RealizedVolume: 40}, Percentage: 0.4, IsBelowThreshold: true},
		},
		FailingRoutesCount: 1,
		TotalRoutes:        1,
		Status:             domain.StatusCritical,
	}

	t.Run("list", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Zones", mock.Anything).Return(zones)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zones", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, float64(2), resp["count"])
		assert.Len(t, resp["data"], 2)
	})

	t.Run("detail", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Detail", mock.Anything, "CAM-0001").Return(detail, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zones/CAM-0001", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, "CAM-0001", data["zone_id"])
		assert.Equal(t, float64(1), data["failing_routes_count"])
	})

	t.Run("unknown zone", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Detail", mock.Anything, "NOPE").Return(domain.ZoneDetail{}, domain.ErrZoneNotFound)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zones/NOPE", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeZoneNotFound, decodeBody(t, rec)["type"])
	})

	t.Run("detail export", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Detail", mock.Anything, "CAM-0001").Return(detail, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zones/CAM-0001/export.csv", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="zone-CAM-0001.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Contains(t, rec.Body.String(), "C1,CAMPINAS,RIO DE JANEIRO,100.00,40.00,40.00,false,true")
	})
}

func TestAnalyticsHandler(t *testing.T) {
	result := domain.AnalyticsResult{
		Mode:      domain.ModeBonus,
		Threshold: 0.9,
		PerZone: []domain.ZoneAnalytics{
			{ZoneID: "CAM-0001", Name: "CAMPINAS", Contracted: 150, Realized: 50},
		},
		Totals: domain.AggregateAnalytics{Contracted: 150, Realized: 50},
	}

	t.Run("defaults", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Analytics", mock.Anything, domain.ModeBonus, time.Time{}).Return(result, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, "BONUS", data["mode"])
		assert.Equal(t, 0.9, data["threshold"])
		svc.AssertExpectations(t)
	})

	t.Run("mode and date", func(t *testing.T) {
		ref := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.Local)
		svc := new(MockWorkspaceService)
		svc.On("Analytics", mock.Anything, domain.ModeGIF, ref).Return(result, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics?mode=gif&date=15/03/2025", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid mode", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics?mode=PLATINUM", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, rec)["error_code"])
		svc.AssertNotCalled(t, "Analytics", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid date", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics?date=2025/15/03", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("nothing imported", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Analytics", mock.Anything, domain.ModeBonus, time.Time{}).Return(domain.AnalyticsResult{}, domain.ErrNoZones)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, apierrors.TypeNoZones, decodeBody(t, rec)["type"])
	})

	t.Run("csv export", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Analytics", mock.Anything, domain.ModeBonus, time.Time{}).Return(result, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/export.csv", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="analytics-bonus-`))
		assert.Contains(t, rec.Body.String(), "CAM-0001,CAMPINAS")
		assert.Contains(t, rec.Body.String(), ",TOTAL,")
	})
}

func TestReceiptsHandler(t *testing.T) {
	t.Run("register", func(t *testing.T) {
		subs := []receipts.Submission{
			{FileName: "nf-001.pdf", ExtractionID: "ex-1", OriginCity: "CAMPINAS", DestinationCity: "RIO DE JANEIRO"},
		}
		added := []domain.Receipt{{ID: "r1", FileName: "nf-001.pdf", ExtractionID: "ex-1", ZoneID: "CAM-0001", RouteID: "C1"}}
		stats := domain.ReceiptStats{Total: 1, ValidLoads: 1}

		svc := new(MockWorkspaceService)
		svc.On("RegisterReceipts", mock.Anything, subs).Return(added, stats)

		payload, err := json.Marshal(RegisterReceiptsRequest{Receipts: subs})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/receipts", bytes.NewReader(payload)))

		assert.Equal(t, http.StatusCreated, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, float64(1), data["stats"].(map[string]interface{})["valid_loads"])
		svc.AssertExpectations(t)
	})

	t.Run("invalid item", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		body := `{"receipts":[{"file_name":"a.pdf","extraction_id":"x"},{"extraction_id":"y"}]}`
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/receipts", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errs := decodeBody(t, rec)["errors"].([]interface{})
		require.Len(t, errs, 1)
		assert.Equal(t, "[1].file_name", errs[0].(map[string]interface{})["field"])
		svc.AssertNotCalled(t, "RegisterReceipts", mock.Anything, mock.Anything)
	})

	t.Run("empty batch", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/receipts", strings.NewReader(`{"receipts":[]}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		svc := new(MockWorkspaceService)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/receipts", strings.NewReader(`{"receipts":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeBody(t, rec)["error_code"])
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("DeleteReceipts", mock.Anything, []string{"r1"}).
			Return([]domain.Receipt{{ID: "r1"}}, domain.ReceiptStats{})

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/receipts", strings.NewReader(`{"ids":["r1"]}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Len(t, data["removed"], 1)
	})

	t.Run("list", func(t *testing.T) {
		svc := new(MockWorkspaceService)
		svc.On("Receipts", mock.Anything).Return(services.ReceiptsView{
			Receipts: []domain.Receipt{{ID: "r1"}, {ID: "r2", IsDuplicate: true}},
			Stats:    domain.ReceiptStats{Total: 2, Duplicates: 1},
		})

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/receipts", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, decodeBody(t, rec)["data"])
	})
}

func TestHealthHandler(t *testing.T) {
	checker := new(MockHealthChecker)
	checker.On("HealthCheck", mock.Anything).Return(services.HealthStatus{Status: "ok", Version: "1.0.0"})
	checker.On("LivenessCheck", mock.Anything).Return(services.HealthStatus{Status: "alive"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Mount("/api/health", NewHealthHandler(checker, logger).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))
	assert.Equal(t, "alive", decodeBody(t, rec)["status"])
}
