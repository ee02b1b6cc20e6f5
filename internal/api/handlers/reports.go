package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/application/service"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// ReportsHandler serves profitability reports built from persisted
// allocations.
type ReportsHandler struct {
	*Base
	costing *service.CostingService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(costingService *service.CostingService) *ReportsHandler {
	return &ReportsHandler{
		Base:    &Base{},
		costing: costingService,
	}
}

// Get handles GET /api/reports/{period} - returns the report as JSON.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

// ExportCSV handles GET /api/reports/{period}/csv - returns the per-product
// rows as a CSV download.
func (h *ReportsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "report-"+report.Scope+".csv"))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"product", "source", "unit", "quantity", "sale_price",
		"revenue", "direct_cost", "allocated_cost", "total_cost",
		"profit", "cost_per_unit", "profit_margin_pct",
	})
	for _, row := range report.Products {
		_ = cw.Write([]string{
			row.ProductName,
			string(row.Source),
			row.Unit,
			formatFloat(row.Quantity),
			formatFloat(row.SalePrice),
			formatFloat(row.Revenue),
			formatFloat(row.DirectCost),
			formatFloat(row.AllocatedCost),
			formatFloat(row.TotalCost),
			formatFloat(row.Profit),
			formatFloat(row.CostPerUnit),
			formatFloat(row.ProfitMargin),
		})
	}
	cw.Flush()
}

func (h *ReportsHandler) report(w http.ResponseWriter, r *http.Request) (*costing.Report, bool) {
	period := chi.URLParam(r, "period")
	scope := ScopeFromRequest(period, r)

	if !scope.AllTime && scope.Period == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("period is required"))
		return nil, false
	}

	report, err := h.costing.Report(scope)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}
	return report, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
