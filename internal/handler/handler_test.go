package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invwatch/internal/domain"
	"invwatch/internal/handler"
	"invwatch/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockIngestService struct {
	mock.Mock
}

func (m *mockIngestService) Process(ctx context.Context, path string) domain.ProcessOutcome {
	return m.Called(ctx, path).Get(0).(domain.ProcessOutcome)
}

func (m *mockIngestService) Preview(ctx context.Context, path string) (*service.ParsePreview, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ParsePreview), args.Error(1)
}

func (m *mockIngestService) Stats() domain.IngestStats {
	return m.Called().Get(0).(domain.IngestStats)
}

func (m *mockIngestService) SetPending(n int) { m.Called(n) }

type mockSyncService struct {
	mock.Mock
}

func (m *mockSyncService) RunCycle(ctx context.Context) (*service.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func (m *mockSyncService) Stats() domain.SyncStats {
	return m.Called().Get(0).(domain.SyncStats)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func uploadRequest(t *testing.T, name string, body []byte) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, _ = part.Write(body)
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/parse", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseHandler_Success(t *testing.T) {
	svc := new(mockIngestService)
	h := handler.NewParseHandler(svc, 1<<20)

	preview := &service.ParsePreview{Document: domain.InvoiceDocument{SourceFile: "SC1.pdf", PeriodKey: "Apr-24"}}
	svc.On("Preview", mock.Anything, mock.MatchedBy(func(p string) bool {
		data, err := os.ReadFile(p)
		return err == nil && filepath.Base(p) == "SC1.pdf" && string(data) == "%PDF-1.4"
	})).Return(preview, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = uploadRequest(t, "SC1.pdf", []byte("%PDF-1.4"))

	h.Parse(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	assert.Contains(t, w.Body.String(), `"period_key"`)
	svc.AssertExpectations(t)
}

func TestParseHandler_MissingFile(t *testing.T) {
	h := handler.NewParseHandler(new(mockIngestService), 0)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/parse", http.NoBody)

	h.Parse(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w).Error.Code)
}

func TestParseHandler_RejectsNonPDF(t *testing.T) {
	svc := new(mockIngestService)
	h := handler.NewParseHandler(svc, 0)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = uploadRequest(t, "scan.png", []byte("png"))

	h.Parse(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "Preview", mock.Anything, mock.Anything)
}

func TestParseHandler_TooLarge(t *testing.T) {
	h := handler.NewParseHandler(new(mockIngestService), 4)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = uploadRequest(t, "big.pdf", []byte("%PDF-1.4 and more"))

	h.Parse(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestParseHandler_InvalidDate(t *testing.T) {
	svc := new(mockIngestService)
	svc.On("Preview", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidDate)
	h := handler.NewParseHandler(svc, 0)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = uploadRequest(t, "a.pdf", []byte("%PDF"))

	h.Parse(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_DATE", decode(t, w).Error.Code)
}

func TestSyncHandler_Trigger(t *testing.T) {
	svc := new(mockSyncService)
	svc.On("RunCycle", mock.Anything).Return(&service.SyncResult{Periods: 1, HeadersUploaded: 2}, nil).Once()
	h := handler.NewSyncHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)

	h.Trigger(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"headers_uploaded":2`)
}

func TestSyncHandler_ConflictWhenRunning(t *testing.T) {
	svc := new(mockSyncService)
	svc.On("RunCycle", mock.Anything).Return(nil, domain.ErrSyncInProgress)
	h := handler.NewSyncHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)

	h.Trigger(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SYNC_IN_PROGRESS", decode(t, w).Error.Code)
}

func TestSyncHandler_Disabled(t *testing.T) {
	h := handler.NewSyncHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)

	h.Trigger(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatsHandler_GetStats(t *testing.T) {
	ingest := new(mockIngestService)
	ingest.On("Stats").Return(domain.IngestStats{Processed: 4, Archived: 3, Quarantined: 1})
	syncSvc := new(mockSyncService)
	syncSvc.On("Stats").Return(domain.SyncStats{CompletedCycles: 7})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody)

	handler.NewStatsHandler(ingest, syncSvc).GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quarantined":1`)
	assert.Contains(t, w.Body.String(), `"completed_cycles":7`)
}

func TestStatsHandler_SyncDisabled(t *testing.T) {
	ingest := new(mockIngestService)
	ingest.On("Stats").Return(domain.IngestStats{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody)

	handler.NewStatsHandler(ingest, nil).GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"sync"`)
}

func TestHealthHandler_Readiness(t *testing.T) {
	dir := t.TempDir()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(nil, dir).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(nil, filepath.Join(dir, "missing")).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrRemoteUnavailable, http.StatusBadGateway, "REMOTE_UNAVAILABLE"},
		{domain.ErrSourceUnavailable, http.StatusUnprocessableEntity, "SOURCE_UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code, _ := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.status, status)
		assert.Equal(t, tt.code, code)
	}
}
