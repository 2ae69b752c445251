package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medipos-system/internal/cart"
)

// --- Mock collaborators ---

type mockCatalog struct {
	products    map[int64]cart.Product
	invalidated []int64
}

func (m *mockCatalog) GetRecord(ctx context.Context, id int64) (*cart.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, errors.New("Product not found or inactive")
	}
	return &p, nil
}

func (m *mockCatalog) InvalidateCatalogCaches(ctx context.Context, productIDs ...int64) {
	m.invalidated = append(m.invalidated, productIDs...)
}

type mockSearcher struct{}

func (mockSearcher) Search(ctx context.Context, query string, locationID *int64) ([]cart.Product, error) {
	return nil, nil
}

type mockSubmitter struct {
	err   error
	calls int
}

func (m *mockSubmitter) Submit(ctx context.Context, bill cart.BillSubmission) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "BILL-MOCK", nil
}

// --- Helpers ---

func paracetamol() cart.Product {
	return cart.Product{
		ProductID:   1,
		ProductName: "Paracetamol",
		Drug:        "Acetaminophen",
		MRP:         "9.99",
		UnitPrice:   "5.00",
		Batch:       "B1",
		Exp:         "2027-03-31T00:00:00Z",
	}
}

func newTestRouter(catalog *mockCatalog, submitter *mockSubmitter) (*gin.Engine, *cart.Store) {
	gin.SetMode(gin.TestMode)

	store := cart.NewStore(mockSearcher{}, submitter, 10*time.Millisecond)
	h := NewSessionHTTPHandler(store, catalog, zap.NewNop())

	r := gin.New()
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/items", h.AddItem)
		sessions.PUT("/:id/items/:key", h.UpdateItem)
		sessions.DELETE("/:id/items/:key", h.RemoveItem)
		sessions.PUT("/:id/context", h.SetContext)
		sessions.POST("/:id/confirm", h.Confirm)
		sessions.POST("/:id/cancel", h.Cancel)
		sessions.POST("/:id/submit", h.Submit)
	}
	return r, store
}

type sessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Session struct {
		State string `json:"state"`
		Lines []struct {
			Key      string `json:"key"`
			Quantity int    `json:"quantity"`
		} `json:"lines"`
		Totals struct {
			TotalItems  int    `json:"totalItems"`
			TotalAmount string `json:"totalAmount"`
		} `json:"totals"`
	} `json:"session"`
	BillNumber string `json:"bill_number"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, sessionResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp sessionResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func itemPath(sessionID, key string) string {
	return "/sessions/" + sessionID + "/items/" + url.PathEscape(key)
}

// --- Tests ---

func TestAddItemAccumulatesQuantity(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	r, store := newTestRouter(catalog, &mockSubmitter{})
	session := store.Create()

	rec, _ := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Session.Lines, 1)
	assert.Equal(t, 2, resp.Session.Lines[0].Quantity)
	assert.Equal(t, 2, resp.Session.Totals.TotalItems)
	assert.Equal(t, "10", resp.Session.Totals.TotalAmount)
	assert.Equal(t, "building", resp.Session.State)
}

func TestAddItemUnknownProduct(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{}}
	r, store := newTestRouter(catalog, &mockSubmitter{})
	session := store.Create()

	rec, resp := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}

func TestUpdateItemClampsQuantity(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	r, store := newTestRouter(catalog, &mockSubmitter{})
	session := store.Create()

	_, resp := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})
	key := resp.Session.Lines[0].Key

	rec, resp := doJSON(t, r, http.MethodPut, itemPath(session.ID, key), gin.H{"quantity": 0})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resp.Session.Lines[0].Quantity)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	r, store := newTestRouter(catalog, &mockSubmitter{})
	session := store.Create()

	_, resp := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})
	key := resp.Session.Lines[0].Key

	rec, _ := doJSON(t, r, http.MethodDelete, itemPath(session.ID, key), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doJSON(t, r, http.MethodDelete, itemPath(session.ID, key), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Session.Lines)
	assert.Equal(t, "idle", resp.Session.State)
}

func TestSubmitFlow(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	submitter := &mockSubmitter{}
	r, store := newTestRouter(catalog, submitter)
	session := store.Create()

	doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})

	rec, resp := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/confirm", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirming", resp.Session.State)

	rec, resp = doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/submit", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BILL-MOCK", resp.BillNumber)
	assert.Equal(t, "idle", resp.Session.State)
	assert.Empty(t, resp.Session.Lines)
	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, []int64{1}, catalog.invalidated)
}

func TestSubmitWithoutConfirmation(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	r, store := newTestRouter(catalog, &mockSubmitter{})
	session := store.Create()

	doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})

	rec, _ := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitFailurePreservesCart(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	submitter := &mockSubmitter{err: errors.New("billing backend down")}
	r, store := newTestRouter(catalog, submitter)
	session := store.Create()

	doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})
	doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/confirm", nil)

	rec, _ := doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, resp := doJSON(t, r, http.MethodGet, "/sessions/"+session.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Session.Lines, 1)
	assert.Equal(t, "building", resp.Session.State)
	assert.Empty(t, catalog.invalidated)
}

func TestLocationChangeConflict(t *testing.T) {
	catalog := &mockCatalog{products: map[int64]cart.Product{1: paracetamol()}}
	r, store := newTestRouter(catalog, &mockSubmitter{})
	session := store.Create()

	rec, _ := doJSON(t, r, http.MethodPut, "/sessions/"+session.ID+"/context", gin.H{"location_id": 1})
	assert.Equal(t, http.StatusOK, rec.Code)

	doJSON(t, r, http.MethodPost, "/sessions/"+session.ID+"/items", gin.H{"product_id": 1})

	rec, _ = doJSON(t, r, http.MethodPut, "/sessions/"+session.ID+"/context", gin.H{"location_id": 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp := doJSON(t, r, http.MethodPut, "/sessions/"+session.ID+"/context",
		gin.H{"location_id": 2, "confirm_location_change": true})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Session.Lines)
}

func TestSessionNotFound(t *testing.T) {
	r, _ := newTestRouter(&mockCatalog{}, &mockSubmitter{})

	rec, resp := doJSON(t, r, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}
