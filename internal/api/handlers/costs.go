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

// CostsHandler handles cost-related HTTP requests.
type CostsHandler struct {
	*Base
}

// NewCostsHandler creates a new costs handler.
func NewCostsHandler(repo storage.Repository) *CostsHandler {
	return &CostsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/costs?period= - returns costs for a period, or all
// periods when none is given.
func (h *CostsHandler) List(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	scope := costing.Scope{Period: period, AllTime: period == ""}

	costs, err := h.repo.ListCosts(scope)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewListResponse(costs))
}

// Create handles POST /api/costs - creates a cost to distribute.
func (h *CostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	cost, apiErr := costFromRequest(&req)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	if err := h.repo.CreateCost(cost); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, cost)
}

// Update handles PUT /api/costs/{id} - replaces a cost's fields.
func (h *CostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.costID(w, r)
	if !ok {
		return
	}

	existing, err := h.repo.GetCost(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if existing == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("cost"))
		return
	}

	var req dto.CostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	cost, apiErr := costFromRequest(&req)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}
	cost.ID = existing.ID
	cost.OriginAmount = existing.OriginAmount
	cost.SplitRatio = existing.SplitRatio
	cost.SourceTag = existing.SourceTag
	cost.CreatedAt = existing.CreatedAt

	if err := h.repo.UpdateCost(cost); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, cost)
}

// Delete handles DELETE /api/costs/{id} - removes a cost.
func (h *CostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.costID(w, r)
	if !ok {
		return
	}

	existing, err := h.repo.GetCost(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if existing == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("cost"))
		return
	}

	if err := h.repo.DeleteCost(id); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CostsHandler) costID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid cost ID"))
		return 0, false
	}
	return id, true
}

// costFromRequest validates and builds a cost. Applicability defaults to
// all, basis to value, category to general.
func costFromRequest(req *dto.CostRequest) (*costing.Cost, *dto.APIError) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Period == "" {
		err := dto.BadRequestError("name and period are required")
		return nil, &err
	}
	if req.Amount < 0 {
		err := dto.BadRequestError("amount must not be negative")
		return nil, &err
	}

	appliesTo := costing.AppliesTo(strings.ToLower(req.AppliesTo))
	if req.AppliesTo == "" {
		appliesTo = costing.AppliesAll
	}
	if !appliesTo.Valid() {
		err := dto.BadRequestError("applies_to must be one of: all, inhouse, outsourced, both")
		return nil, &err
	}

	basis := costing.Basis(strings.ToLower(req.Basis))
	if req.Basis == "" {
		basis = costing.BasisValue
	}
	if !basis.Valid() {
		err := dto.BadRequestError("basis must be one of: weight, value, trips")
		return nil, &err
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	return &costing.Cost{
		Name:      name,
		Amount:    req.Amount,
		AppliesTo: appliesTo,
		Basis:     basis,
		Category:  category,
		Period:    req.Period,
	}, nil
}
