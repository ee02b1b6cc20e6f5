package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

// SalesHandler handles sale-record HTTP requests.
type SalesHandler struct {
	*Base
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(repo storage.Repository) *SalesHandler {
	return &SalesHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/sales?period= - returns sales for a period, or all
// periods when none is given.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	scope := costing.Scope{Period: period, AllTime: period == ""}

	sales, err := h.repo.ListSales(scope)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewListResponse(sales))
}

// Create handles POST /api/sales - records one product's movement for a
// period. Production and wastage are derived from the quantities.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	if req.ProductID == 0 || req.Period == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("product_id and period are required"))
		return
	}

	product, err := h.repo.GetProduct(req.ProductID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if product == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("product"))
		return
	}

	existing, err := h.repo.GetSaleByProductPeriod(req.ProductID, req.Period)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if existing != nil {
		h.WriteError(w, http.StatusConflict, dto.ConflictError("a sale for this product and period already exists"))
		return
	}

	sale := saleFromRequest(&req)
	if err := h.repo.CreateSale(sale); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, sale)
}

// Update handles PUT /api/sales/{id} - replaces a sale's figures.
func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid sale ID"))
		return
	}

	sale, err := h.repo.GetSale(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if sale == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("sale"))
		return
	}

	var req dto.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	updated := saleFromRequest(&req)
	updated.ID = sale.ID
	updated.ProductID = sale.ProductID
	updated.Period = sale.Period
	updated.CreatedAt = sale.CreatedAt

	if err := h.repo.UpdateSale(updated); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, updated)
}

// saleFromRequest builds a record with production, wastage, and cost of
// purchases derived from the quantities.
func saleFromRequest(req *dto.SaleRequest) *costing.SaleRecord {
	inwardValue := req.InwardValue
	if inwardValue == 0 {
		inwardValue = req.InwardQty * req.InwardRate
	}

	sale := &costing.SaleRecord{
		ProductID:   req.ProductID,
		Period:      req.Period,
		OutwardQty:  req.OutwardQty,
		OutwardRate: req.OutwardRate,
		InwardQty:   req.InwardQty,
		InwardRate:  req.InwardRate,
		InwardValue: inwardValue,
		DirectCost:  inwardValue,
	}

	diff := req.OutwardQty - req.InwardQty
	if diff > 0 {
		sale.InHouseProduction = diff
	} else {
		sale.Wastage = -diff
	}
	return sale
}
