package storage

import (
	"time"

	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	ProductRepository
	SaleRepository
	CostRepository
	AllocationRepository
	RunRepository
	Close() error
}

// ProductRepository handles product records. Products are soft-deleted:
// deactivated, never removed.
type ProductRepository interface {
	// CreateProduct inserts a product and sets its ID. Name is unique.
	CreateProduct(p *costing.Product) error

	// GetProduct retrieves a product by ID, nil when absent.
	GetProduct(id int64) (*costing.Product, error)

	// GetProductByName retrieves a product by its natural key, nil when
	// absent.
	GetProductByName(name string) (*costing.Product, error)

	// ListProducts returns products ordered by name.
	ListProducts(activeOnly bool) ([]costing.Product, error)

	// UpdateProduct updates name, source, unit, and active flag.
	UpdateProduct(p *costing.Product) error

	// DeactivateProduct soft-deletes a product.
	DeactivateProduct(id int64) error
}

// SaleRepository handles per-period sale records.
type SaleRepository interface {
	// CreateSale inserts a sale record and sets its ID. A product/period
	// pair is unique.
	CreateSale(s *costing.SaleRecord) error

	// GetSale retrieves a sale by ID, nil when absent.
	GetSale(id int64) (*costing.SaleRecord, error)

	// GetSaleByProductPeriod retrieves the sale for a product/period pair,
	// nil when absent.
	GetSaleByProductPeriod(productID int64, period string) (*costing.SaleRecord, error)

	// ListSales returns the sales in scope: one period, or everything for
	// the all-time scope.
	ListSales(scope costing.Scope) ([]costing.SaleRecord, error)

	// UpdateSale updates quantities, rates, and derived figures.
	UpdateSale(s *costing.SaleRecord) error
}

// CostRepository handles period cost records.
type CostRepository interface {
	// CreateCost inserts a cost and sets its ID.
	CreateCost(c *costing.Cost) error

	// GetCost retrieves a cost by ID, nil when absent.
	GetCost(id int64) (*costing.Cost, error)

	// ListCosts returns the costs in scope.
	ListCosts(scope costing.Scope) ([]costing.Cost, error)

	// UpdateCost updates a cost's fields.
	UpdateCost(c *costing.Cost) error

	// DeleteCost removes a cost.
	DeleteCost(id int64) error
}

// AllocationRepository handles the derived allocation rows. Allocations for
// a scope are owned by the latest run over that scope.
type AllocationRepository interface {
	// ReplaceAllocations atomically replaces every allocation in scope with
	// the given set inside one transaction. On failure the previous set is
	// left intact.
	ReplaceAllocations(scope costing.Scope, allocations []costing.Allocation) error

	// ListAllocations returns the allocations currently owned by the scope.
	ListAllocations(scope costing.Scope) ([]costing.Allocation, error)
}

// RunRepository tracks allocation runs for observability.
type RunRepository interface {
	// SaveRun inserts or updates a run record.
	SaveRun(run *AllocationRun) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]AllocationRun, error)
}

// Run statuses.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AllocationRun records one allocation run over a scope.
type AllocationRun struct {
	ID               string    `json:"id"`
	ScopeKey         string    `json:"scope_key"`
	Period           string    `json:"period"`
	AllTime          bool      `json:"all_time"`
	CostCount        int       `json:"cost_count"`
	SaleCount        int       `json:"sale_count"`
	AllocationCount  int       `json:"allocation_count"`
	UnallocatedCount int       `json:"unallocated_count"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}
