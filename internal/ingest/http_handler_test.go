package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"dblsync/internal/archive"
	"dblsync/internal/catalog"
	"dblsync/internal/platform/dbl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunLister struct {
	mock.Mock
}

func (m *mockRunLister) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Run), args.Error(1)
}

func newHandler(t *testing.T, client CatalogClient, runs RunLister) (*HTTPHandler, string) {
	t.Helper()
	dir := t.TempDir()
	builder := builderFunc(func(ctx context.Context, job archive.Job) (archive.Result, error) {
		return archive.Result{Written: 1}, nil
	})
	svc := NewService(client, builder, nil, nil, nil)
	return NewHTTPHandler(svc, dir, Options{Concurrency: 1}, runs), dir
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHTTPHandler_Sync(t *testing.T) {
	t.Run("runs a sync", func(t *testing.T) {
		client := new(mockCatalogClient)
		client.On("ListEntries", mock.Anything).Return(testEntries(), nil)
		h, dir := newHandler(t, client, nil)

		req := httptest.NewRequest(http.MethodPost, "/internal/jobs/sync", strings.NewReader(`{"language":"acr"}`))
		rec := httptest.NewRecorder()
		h.Sync(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, StatusCompleted, data["status"])
		assert.Equal(t, float64(1), data["downloaded"])
		assert.Equal(t, filepath.Join(dir, "entries_acr.json"), data["snapshot_path"])
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		client := new(mockCatalogClient)
		client.On("ListEntries", mock.Anything).Return(testEntries(), nil)
		h, dir := newHandler(t, client, nil)

		rec := httptest.NewRecorder()
		h.Sync(rec, httptest.NewRequest(http.MethodPost, "/internal/jobs/sync", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, filepath.Join(dir, catalog.SnapshotFile), data["snapshot_path"])
	})

	t.Run("invalid body", func(t *testing.T) {
		h, _ := newHandler(t, new(mockCatalogClient), nil)

		rec := httptest.NewRecorder()
		h.Sync(rec, httptest.NewRequest(http.MethodPost, "/internal/jobs/sync", strings.NewReader(`{"language":"NOT VALID"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]any)["code"])
	})

	t.Run("concurrent sync is rejected", func(t *testing.T) {
		h, _ := newHandler(t, new(mockCatalogClient), nil)
		h.busy.Lock()
		defer h.busy.Unlock()

		rec := httptest.NewRecorder()
		h.Sync(rec, httptest.NewRequest(http.MethodPost, "/internal/jobs/sync", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("catalog failure maps to bad gateway", func(t *testing.T) {
		client := new(mockCatalogClient)
		client.On("ListEntries", mock.Anything).Return(nil, &dbl.StatusError{Code: http.StatusUnauthorized})
		h, _ := newHandler(t, client, nil)

		rec := httptest.NewRecorder()
		h.Sync(rec, httptest.NewRequest(http.MethodPost, "/internal/jobs/sync", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHTTPHandler_Runs(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		h, _ := newHandler(t, new(mockCatalogClient), nil)
		rec := httptest.NewRecorder()
		h.Runs(rec, httptest.NewRequest(http.MethodGet, "/internal/jobs/runs", nil))
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("lists runs", func(t *testing.T) {
		lister := new(mockRunLister)
		lister.On("ListRuns", mock.Anything, 5).Return([]Run{{ID: "r1", Status: StatusCompleted}}, nil)
		h, _ := newHandler(t, new(mockCatalogClient), lister)

		rec := httptest.NewRecorder()
		h.Runs(rec, httptest.NewRequest(http.MethodGet, "/internal/jobs/runs?limit=5", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].([]any)
		require.Len(t, data, 1)
		assert.Equal(t, "r1", data[0].(map[string]any)["id"])
		lister.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		h, _ := newHandler(t, new(mockCatalogClient), new(mockRunLister))
		rec := httptest.NewRecorder()
		h.Runs(rec, httptest.NewRequest(http.MethodGet, "/internal/jobs/runs?limit=0", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPHandler_Sync_OutlivesClient(t *testing.T) {
	client := new(mockCatalogClient)
	client.On("ListEntries", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	})).Return(testEntries(), nil)
	h, dir := newHandler(t, client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/internal/jobs/sync", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Sync(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, StatusCompleted, data["status"])
	assert.FileExists(t, filepath.Join(dir, catalog.SnapshotFile))
	client.AssertExpectations(t)
}
