package handlers

import (
	"net/http"
	"time"

	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/application/service"
)

// StatsHandler serves the dashboard overview.
type StatsHandler struct {
	*Base
	costing *service.CostingService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(costingService *service.CostingService) *StatsHandler {
	return &StatsHandler{
		Base:    &Base{},
		costing: costingService,
	}
}

// Get handles GET /api/dashboard/stats?period= - returns the aggregate
// overview for a period, defaulting to the current month.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = time.Now().Format("2006-01")
	}

	stats, err := h.costing.Stats(period)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
