package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	log := seededLog(t,
		record("r1", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), "PO1"),
	)
	handler := NewHandler(nil, NewService(log, nil))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func get(t *testing.T, r chi.Router, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil).WithContext(context.Background())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExportEndpointRequiresDates(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/export-csv").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/export-csv?startDate=2026-08-10").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/export-csv?startDate=bogus&endDate=2026-08-10").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/export-csv?startDate=2026-08-12&endDate=2026-08-10").Code)
}

func TestExportEndpointNoData(t *testing.T) {
	r := newTestRouter(t)

	rec := get(t, r, "/export-csv?startDate=2026-09-01&endDate=2026-09-02")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportEndpointServesAttachment(t *testing.T) {
	r := newTestRouter(t)

	rec := get(t, r, "/export-csv?startDate=2026-08-10&endDate=2026-08-10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), Filename)
	assert.Contains(t, rec.Body.String(), "r1")
}
