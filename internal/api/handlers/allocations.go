package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/application/service"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// AllocationsHandler triggers allocation runs.
type AllocationsHandler struct {
	*Base
	costing *service.CostingService
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(costingService *service.CostingService) *AllocationsHandler {
	return &AllocationsHandler{
		Base:    &Base{},
		costing: costingService,
	}
}

// Allocate handles POST /api/allocate/{period} - runs the allocation for
// the period (or all-time with ?all_time=true) and returns the report.
func (h *AllocationsHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	scope := ScopeFromRequest(period, r)

	if !scope.AllTime && scope.Period == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("period is required"))
		return
	}

	report, err := h.costing.Allocate(scope)
	if err != nil {
		if errors.Is(err, costing.ErrNoCosts) || errors.Is(err, costing.ErrNoSales) {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

// List handles GET /api/allocations/{period} - returns the allocation rows
// persisted for the scope.
func (h *AllocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	scope := ScopeFromRequest(period, r)

	if !scope.AllTime && scope.Period == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("period is required"))
		return
	}

	allocations, err := h.costing.Allocations(scope)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewListResponse(allocations))
}
