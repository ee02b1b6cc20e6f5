package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/api/handlers"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

func productsRouter(repo storage.Repository) chi.Router {
	h := handlers.NewProductsHandler(repo)
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{id}", h.Get)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func TestProductsHandler_CreateAndGet(t *testing.T) {
	repo := storage.NewMockRepository()
	router := productsRouter(repo)

	body := `{"name":"Pineapple","source":"in-house","unit":"kg"}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created costing.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, costing.SourceInHouse, created.Source)
	assert.True(t, created.Active)

	req = httptest.NewRequest(http.MethodGet, "/products/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got costing.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Pineapple", got.Name)
}

func TestProductsHandler_CreateValidation(t *testing.T) {
	repo := storage.NewMockRepository()
	router := productsRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductsHandler_DuplicateNameConflicts(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.CreateProduct(&costing.Product{Name: "Pineapple", Source: costing.SourceInHouse, Unit: "kg", Active: true}))
	router := productsRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"Pineapple"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var apiErr dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, dto.ErrCodeConflict, apiErr.Code)
}

func TestProductsHandler_GetNotFound(t *testing.T) {
	router := productsRouter(storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/products/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/products/abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductsHandler_UpdateAndDelete(t *testing.T) {
	repo := storage.NewMockRepository()
	p := &costing.Product{Name: "Pineapple", Source: costing.SourceInHouse, Unit: "kg", Active: true}
	require.NoError(t, repo.CreateProduct(p))
	router := productsRouter(repo)

	req := httptest.NewRequest(http.MethodPut, "/products/1", strings.NewReader(`{"unit":"pcs","source":"outsourced"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var updated costing.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "pcs", updated.Unit)
	assert.Equal(t, costing.SourceOutsourced, updated.Source)
	assert.Equal(t, "Pineapple", updated.Name)

	req = httptest.NewRequest(http.MethodDelete, "/products/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Soft delete: gone from the active list, still fetchable.
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var list dto.ListResponse[costing.Product]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 0, list.Count)

	req = httptest.NewRequest(http.MethodGet, "/products?active_only=false", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
	assert.False(t, list.Items[0].Active)
}
