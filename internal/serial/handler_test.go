package serial

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmint/tagmint/internal/auditlog"
	"github.com/tagmint/tagmint/internal/auth"
	"github.com/tagmint/tagmint/internal/ledger"
	"github.com/tagmint/tagmint/internal/platform/blob"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	if token != "good-token" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.Identity{Email: "u@x.com"}, nil
}

func newTestRouter(t *testing.T) (chi.Router, *ledger.Ledger) {
	t.Helper()
	store := blob.NewMemory()
	l := ledger.New(store)
	svc := NewService(l, auditlog.New(store), NewIdempotencyStore(store), nil, nil)
	handler := NewHandler(nil, svc, auth.RequireIdentity(stubVerifier{}, nil))

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, l
}

func TestAllocateEndpointRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/barcodes", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/barcodes", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAllocateEndpointValidatesPayload(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, body := range []string{
		`{"skuPrefix":"ABC","barcodeNumber":"BN1","quantity":0}`,
		`{"skuPrefix":"ABC","barcodeNumber":"BN1","quantity":1099511627776}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/barcodes", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestAllocateEndpointIssuesRange(t *testing.T) {
	r, l := newTestRouter(t)
	require.NoError(t, l.Seed(context.Background(), map[string]int64{"ABC": 1000}))

	body := `{"skuPrefix":"ABC","po":"PO1","barcodeNumber":"BN1","quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/barcodes", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp allocateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Barcodes, 5)
	assert.Equal(t, "ABC-1001", resp.Barcodes[0].BarcodeValue)
	assert.Equal(t, int64(1005), resp.LastSerial)
}

func TestAllocateEndpointRejectsStaleStartSerial(t *testing.T) {
	r, l := newTestRouter(t)
	require.NoError(t, l.Seed(context.Background(), map[string]int64{"ABC": 1000}))

	body := `{"skuPrefix":"ABC","barcodeNumber":"BN1","quantity":5,"startSerial":900}`
	req := httptest.NewRequest(http.MethodPost, "/barcodes", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLastSerialEndpointIsPublic(t *testing.T) {
	r, l := newTestRouter(t)
	require.NoError(t, l.Seed(context.Background(), map[string]int64{"ABC": 42}))

	req := httptest.NewRequest(http.MethodGet, "/last-serial/ABC", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lastSerial":42}`, rec.Body.String())

	// Unknown prefix bootstraps at zero instead of failing.
	req = httptest.NewRequest(http.MethodGet, "/last-serial/NOPE", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lastSerial":0}`, rec.Body.String())
}

func TestSerialsEndpointRequiresToken(t *testing.T) {
	r, l := newTestRouter(t)
	require.NoError(t, l.Seed(context.Background(), map[string]int64{"ABC": 7}))

	req := httptest.NewRequest(http.MethodGet, "/serials", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/serials", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ABC":7}`, rec.Body.String())
}
