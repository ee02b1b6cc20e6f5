// Package service wires the costing domain to storage: allocation runs with
// scope-level serialization and atomic persistence, spreadsheet ingestion
// with per-row error collection, and report/stats reads.
package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

// CostingService runs cost allocations over a storage-backed snapshot.
//
// Runs over the same scope are serialized with a per-scope lock: concurrent
// runs would otherwise race on the delete-then-insert replacement and could
// leave a partially overwritten allocation set visible.
type CostingService struct {
	repo   storage.Repository
	engine *costing.Engine
	logger *slog.Logger

	mu         sync.Mutex
	scopeLocks map[string]*sync.Mutex
}

// NewCostingService creates a costing service.
func NewCostingService(repo storage.Repository, engine *costing.Engine, logger *slog.Logger) *CostingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostingService{
		repo:       repo,
		engine:     engine,
		logger:     logger,
		scopeLocks: make(map[string]*sync.Mutex),
	}
}

// lockScope acquires the lock for a scope key and returns the release func.
func (s *CostingService) lockScope(key string) func() {
	s.mu.Lock()
	lock, ok := s.scopeLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.scopeLocks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Allocate runs the allocation for a scope and atomically replaces the
// scope's allocation set with the result. Precondition failures (no costs,
// no sales) are returned unwrapped and cause no mutation; any persistence
// failure rolls back, leaving the previous allocation set intact.
func (s *CostingService) Allocate(scope costing.Scope) (*costing.Report, error) {
	release := s.lockScope(scope.Key())
	defer release()

	startedAt := time.Now().UTC()

	products, err := s.repo.ListProducts(true)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	sales, err := s.repo.ListSales(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	costs, err := s.repo.ListCosts(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load costs: %w", err)
	}

	result, err := s.engine.Allocate(scope, costs, products, sales)
	if err != nil {
		// ErrNoCosts / ErrNoSales: user-correctable, nothing was mutated.
		return nil, err
	}

	run := &storage.AllocationRun{
		ID:               uuid.NewString(),
		ScopeKey:         scope.Key(),
		Period:           scope.Period,
		AllTime:          scope.AllTime,
		CostCount:        len(costs),
		SaleCount:        len(sales),
		AllocationCount:  len(result.Allocations),
		UnallocatedCount: len(result.Unallocated),
		StartedAt:        startedAt,
	}

	if err := s.repo.ReplaceAllocations(scope, result.Allocations); err != nil {
		run.Status = storage.RunStatusFailed
		run.Error = err.Error()
		run.CompletedAt = time.Now().UTC()
		if saveErr := s.repo.SaveRun(run); saveErr != nil {
			s.logger.Error("failed to record failed run", "run_id", run.ID, "error", saveErr)
		}
		return nil, fmt.Errorf("allocation run failed, previous allocations left intact: %w", err)
	}

	run.Status = storage.RunStatusCompleted
	run.CompletedAt = time.Now().UTC()
	if err := s.repo.SaveRun(run); err != nil {
		s.logger.Error("failed to record run", "run_id", run.ID, "error", err)
	}

	s.logger.Info("allocation complete",
		"scope", scope.Key(),
		"costs", len(costs),
		"allocations", len(result.Allocations),
		"unallocated", len(result.Unallocated))

	return costing.BuildReport(scope, products, sales, costs, result.Allocations, result.Unallocated), nil
}

// Report builds the profitability report from the allocations already
// persisted for the scope, without re-allocating. Costs with no allocation
// rows in scope are reported as unallocated.
func (s *CostingService) Report(scope costing.Scope) (*costing.Report, error) {
	products, err := s.repo.ListProducts(true)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	sales, err := s.repo.ListSales(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	costs, err := s.repo.ListCosts(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load costs: %w", err)
	}
	allocations, err := s.repo.ListAllocations(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	allocated := make(map[int64]bool)
	for _, a := range allocations {
		allocated[a.CostID] = true
	}
	var unallocated []costing.UnallocatedCost
	for _, c := range costs {
		if !allocated[c.ID] {
			unallocated = append(unallocated, costing.UnallocatedCost{
				CostID:   c.ID,
				Name:     c.Name,
				Category: c.Category,
				Amount:   c.Amount,
				Reason:   "no allocation rows in scope",
			})
		}
	}

	return costing.BuildReport(scope, products, sales, costs, allocations, unallocated), nil
}

// Allocations returns the allocation rows persisted for the scope.
func (s *CostingService) Allocations(scope costing.Scope) ([]costing.Allocation, error) {
	return s.repo.ListAllocations(scope)
}

// DashboardStats is the aggregate overview for one period.
type DashboardStats struct {
	Period            string  `json:"period"`
	TotalProducts     int     `json:"total_products"`
	ActiveProducts    int     `json:"active_products"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalCosts        float64 `json:"total_costs"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
	InHouseRevenue    float64 `json:"inhouse_revenue"`
	OutsourcedRevenue float64 `json:"outsourced_revenue"`
	InHouseProfit     float64 `json:"inhouse_profit"`
	OutsourcedProfit  float64 `json:"outsourced_profit"`
}

// Stats computes the dashboard overview for a period. Shared period costs
// are split evenly between the two sources here; the real split comes from
// running an allocation and reading the report.
func (s *CostingService) Stats(period string) (*DashboardStats, error) {
	scope := costing.Scope{Period: period}

	all, err := s.repo.ListProducts(false)
	if err != nil {
		return nil, err
	}
	sales, err := s.repo.ListSales(scope)
	if err != nil {
		return nil, err
	}
	costs, err := s.repo.ListCosts(scope)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{Period: period, TotalProducts: len(all)}
	productsByID := make(map[int64]costing.Product, len(all))
	for _, p := range all {
		productsByID[p.ID] = p
		if p.Active {
			stats.ActiveProducts++
		}
	}

	var directInHouse, directOutsourced float64
	for i := range sales {
		rec := &sales[i]
		p, ok := productsByID[rec.ProductID]
		if !ok {
			continue
		}
		revenue := rec.Revenue()
		stats.TotalRevenue += revenue
		if p.Source == costing.SourceInHouse {
			stats.InHouseRevenue += revenue
			directInHouse += rec.DirectCost
		} else {
			stats.OutsourcedRevenue += revenue
			directOutsourced += rec.DirectCost
		}
	}

	var sharedCosts float64
	for _, c := range costs {
		sharedCosts += c.Amount
	}

	stats.TotalCosts = directInHouse + directOutsourced + sharedCosts
	stats.TotalProfit = stats.TotalRevenue - stats.TotalCosts
	if stats.TotalRevenue > 0 {
		stats.ProfitMargin = stats.TotalProfit / stats.TotalRevenue * 100
	}
	stats.InHouseProfit = stats.InHouseRevenue - directInHouse - sharedCosts/2
	stats.OutsourcedProfit = stats.OutsourcedRevenue - directOutsourced - sharedCosts/2

	return stats, nil
}
