package service

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/greenledger/produce-costing-backend/internal/adapters/spreadsheet"
	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/domain/ingest"
	"github.com/greenledger/produce-costing-backend/internal/domain/pnl"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

// MergedPeriodKey is the period assigned to sales when a multi-period file
// is ingested with merging enabled.
const MergedPeriodKey = "all"

// RowError is one row-level ingestion failure. Row numbers are 1-based file
// rows, with the header occupying row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SalesIngestResult summarizes one sales ledger upload.
type SalesIngestResult struct {
	BatchID         string     `json:"batch_id"`
	Period          string     `json:"period"`
	RowsProcessed   int        `json:"rows_processed"`
	CreatedProducts int        `json:"created_products"`
	CreatedSales    int        `json:"created_sales"`
	UpdatedSales    int        `json:"updated_sales"`
	RowErrors       []RowError `json:"row_errors,omitempty"`
}

// PnLIngestResult summarizes one P&L statement upload.
type PnLIngestResult struct {
	BatchID       string     `json:"batch_id"`
	Period        string     `json:"period"`
	RowsProcessed int        `json:"rows_processed"`
	CreatedCosts  int        `json:"created_costs"`
	InHouseRatio  float64    `json:"inhouse_ratio"`
	OutsideRatio  float64    `json:"outsourced_ratio"`
	RowErrors     []RowError `json:"row_errors,omitempty"`
}

// IngestService turns uploaded spreadsheets into products, sales, and costs.
// Bad rows are collected and reported; only structural problems (unreadable
// file, missing required columns) abort an upload.
type IngestService struct {
	repo   storage.Repository
	pnl    pnl.Table
	logger *slog.Logger
}

// NewIngestService creates an ingest service with the given P&L
// classification table.
func NewIngestService(repo storage.Repository, table pnl.Table, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{repo: repo, pnl: table.Normalize(), logger: logger}
}

// IngestSales parses a sales ledger and persists its rows as products and
// sales for the period. With mergePeriods set, rows land in the shared
// "all" period and re-uploads accumulate into existing records; otherwise a
// second row for the same product and period is a row error.
func (s *IngestService) IngestSales(r io.Reader, filename, period string, mergePeriods bool) (*SalesIngestResult, error) {
	table, err := spreadsheet.Read(r, filename)
	if err != nil {
		return nil, err
	}
	cols, err := ingest.ResolveColumns(table.Headers, ingest.SalesFields)
	if err != nil {
		return nil, err
	}

	effectivePeriod := period
	if mergePeriods {
		effectivePeriod = MergedPeriodKey
	}

	result := &SalesIngestResult{
		BatchID: uuid.NewString(),
		Period:  effectivePeriod,
	}

	for i, row := range table.Rows {
		// Row 1 is the header; data starts at file row 2.
		fileRow := i + 2

		name := strings.TrimSpace(cols.Value(row, "particulars"))
		if name == "" {
			continue
		}
		result.RowsProcessed++

		item := ingest.LineItem{
			Name:   name,
			Source: cols.Value(row, "source"),
		}
		item.OutwardQty, item.Unit = ingest.ParseQuantity(cols.Value(row, "outward_qty"))

		rateCell := strings.TrimSpace(cols.Value(row, "outward_rate"))
		rate, ok := ingest.ParseAmount(rateCell)
		if !ok && rateCell != "" {
			result.RowErrors = append(result.RowErrors, RowError{
				Row:     fileRow,
				Message: fmt.Sprintf("unparseable rate %q for %q", rateCell, name),
			})
			continue
		}
		item.OutwardRate = rate

		item.InwardQty, _ = ingest.ParseQuantity(cols.Value(row, "inward_qty"))
		item.InwardRate, _ = ingest.ParseAmount(cols.Value(row, "inward_rate"))
		item.InwardValue, _ = ingest.ParseAmount(cols.Value(row, "inward_value"))

		for _, input := range ingest.SplitLine(item) {
			if err := s.persistSale(input, effectivePeriod, mergePeriods, result); err != nil {
				result.RowErrors = append(result.RowErrors, RowError{Row: fileRow, Message: err.Error()})
			}
		}
	}

	s.logger.Info("sales ingest complete",
		"batch_id", result.BatchID,
		"period", effectivePeriod,
		"rows", result.RowsProcessed,
		"created_products", result.CreatedProducts,
		"created_sales", result.CreatedSales,
		"row_errors", len(result.RowErrors))

	return result, nil
}

// persistSale upserts the product by name and creates or merges the sale.
func (s *IngestService) persistSale(input ingest.SaleInput, period string, merge bool, result *SalesIngestResult) error {
	product, err := s.repo.GetProductByName(input.ProductName)
	if err != nil {
		return fmt.Errorf("failed to look up product %q: %w", input.ProductName, err)
	}
	if product == nil {
		product = &costing.Product{
			Name:   input.ProductName,
			Source: input.Source,
			Unit:   input.Unit,
			Active: true,
		}
		if err := s.repo.CreateProduct(product); err != nil {
			return fmt.Errorf("failed to create product %q: %w", input.ProductName, err)
		}
		result.CreatedProducts++
	} else if !product.Active {
		product.Active = true
		if err := s.repo.UpdateProduct(product); err != nil {
			return fmt.Errorf("failed to reactivate product %q: %w", input.ProductName, err)
		}
	}

	existing, err := s.repo.GetSaleByProductPeriod(product.ID, period)
	if err != nil {
		return fmt.Errorf("failed to look up sale for %q: %w", input.ProductName, err)
	}

	if existing != nil {
		if !merge {
			return fmt.Errorf("duplicate entry for product %q in period %q", input.ProductName, period)
		}
		mergeSale(existing, input)
		if err := s.repo.UpdateSale(existing); err != nil {
			return fmt.Errorf("failed to merge sale for %q: %w", input.ProductName, err)
		}
		result.UpdatedSales++
		return nil
	}

	sale := &costing.SaleRecord{
		ProductID:         product.ID,
		Period:            period,
		OutwardQty:        input.OutwardQty,
		OutwardRate:       input.OutwardRate,
		DirectCost:        input.DirectCost,
		InwardQty:         input.InwardQty,
		InwardRate:        input.InwardRate,
		InwardValue:       input.InwardValue,
		InHouseProduction: input.InHouseProduction,
		Wastage:           input.Wastage,
	}
	if err := s.repo.CreateSale(sale); err != nil {
		return fmt.Errorf("failed to create sale for %q: %w", input.ProductName, err)
	}
	result.CreatedSales++
	return nil
}

// mergeSale accumulates a new upload into an existing merged-period record.
// Rates become quantity-weighted averages; production and wastage are
// recomputed from the merged totals.
func mergeSale(existing *costing.SaleRecord, input ingest.SaleInput) {
	outQty := existing.OutwardQty + input.OutwardQty
	if outQty > 0 {
		existing.OutwardRate = (existing.OutwardQty*existing.OutwardRate + input.OutwardQty*input.OutwardRate) / outQty
	}
	inQty := existing.InwardQty + input.InwardQty
	if inQty > 0 {
		existing.InwardRate = (existing.InwardQty*existing.InwardRate + input.InwardQty*input.InwardRate) / inQty
	}
	existing.OutwardQty = outQty
	existing.InwardQty = inQty
	existing.InwardValue += input.InwardValue
	existing.DirectCost += input.DirectCost

	diff := existing.OutwardQty - existing.InwardQty
	if diff > 0 {
		existing.InHouseProduction = diff
		existing.Wastage = 0
	} else {
		existing.InHouseProduction = 0
		existing.Wastage = -diff
	}
}

// IngestPnL parses a P&L statement, classifies its lines, and persists the
// resulting costs for the period. The shared-cost split ratio is derived
// from the period's sales; with none recorded the default even split is
// used.
func (s *IngestService) IngestPnL(r io.Reader, filename, period string) (*PnLIngestResult, error) {
	table, err := spreadsheet.Read(r, filename)
	if err != nil {
		return nil, err
	}
	cols, err := ingest.ResolveColumns(table.Headers, ingest.PnLFields)
	if err != nil {
		return nil, err
	}

	ratio, err := s.ratioForPeriod(period)
	if err != nil {
		return nil, err
	}

	result := &PnLIngestResult{
		BatchID:      uuid.NewString(),
		Period:       period,
		InHouseRatio: ratio.InHouse,
		OutsideRatio: ratio.Outsourced,
	}

	var lines []pnl.LineItem
	for i, row := range table.Rows {
		fileRow := i + 2

		name := strings.TrimSpace(cols.Value(row, "particulars"))
		if name == "" {
			continue
		}
		result.RowsProcessed++

		amount, ok := ingest.ParseAmount(cols.Value(row, "amount"))
		if !ok {
			result.RowErrors = append(result.RowErrors, RowError{
				Row:     fileRow,
				Message: fmt.Sprintf("unparseable amount %q for line %q", cols.Value(row, "amount"), name),
			})
			continue
		}
		lines = append(lines, pnl.LineItem{Name: name, Amount: amount})
	}

	for _, cost := range pnl.Classify(lines, s.pnl, ratio, period) {
		c := cost
		if err := s.repo.CreateCost(&c); err != nil {
			return result, fmt.Errorf("failed to create cost %q: %w", cost.Name, err)
		}
		result.CreatedCosts++
	}

	s.logger.Info("pnl ingest complete",
		"batch_id", result.BatchID,
		"period", period,
		"rows", result.RowsProcessed,
		"created_costs", result.CreatedCosts,
		"inhouse_ratio", ratio.InHouse)

	return result, nil
}

// ratioForPeriod derives the shared-cost split from the period's sales.
func (s *IngestService) ratioForPeriod(period string) (pnl.Ratio, error) {
	sales, err := s.repo.ListSales(costing.Scope{Period: period})
	if err != nil {
		return pnl.Ratio{}, fmt.Errorf("failed to load sales for ratio: %w", err)
	}
	products, err := s.repo.ListProducts(false)
	if err != nil {
		return pnl.Ratio{}, fmt.Errorf("failed to load products for ratio: %w", err)
	}
	byID := make(map[int64]costing.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return pnl.RevenueRatio(byID, sales), nil
}
