package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

// ProductsHandler handles product-related HTTP requests.
type ProductsHandler struct {
	*Base
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(repo storage.Repository) *ProductsHandler {
	return &ProductsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/products - returns active products, or every
// product when active_only=false.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := ParseBoolParam(r, "active_only", true)

	products, err := h.repo.ListProducts(activeOnly)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewListResponse(products))
}

// Get handles GET /api/products/{id} - returns a single product.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.GetProduct(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if product == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("product"))
		return
	}

	h.WriteJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products - creates a product.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("name is required"))
		return
	}

	existing, err := h.repo.GetProductByName(req.Name)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if existing != nil {
		h.WriteError(w, http.StatusConflict, dto.ConflictError("a product with this name already exists"))
		return
	}

	product := &costing.Product{
		Name:   req.Name,
		Source: costing.ParseSource(req.Source),
		Unit:   req.Unit,
		Active: true,
	}
	if product.Unit == "" {
		product.Unit = "kg"
	}

	if err := h.repo.CreateProduct(product); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id} - updates name, source, unit, and
// the active flag.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.GetProduct(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if product == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("product"))
		return
	}

	var req dto.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		product.Name = name
	}
	if req.Source != "" {
		product.Source = costing.ParseSource(req.Source)
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := h.repo.UpdateProduct(product); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id} - soft-deletes a product.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.GetProduct(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if product == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("product"))
		return
	}

	if err := h.repo.DeactivateProduct(id); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid product ID"))
		return 0, false
	}
	return id, true
}
