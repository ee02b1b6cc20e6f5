package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	products    map[int64]*costing.Product
	sales       map[int64]*costing.SaleRecord
	costs       map[int64]*costing.Cost
	allocations map[string][]costing.Allocation // keyed by scope key
	runs        []AllocationRun
	nextID      int64

	// Error injection for testing error paths
	CreateProductErr      error
	CreateSaleErr         error
	CreateCostErr         error
	ReplaceAllocationsErr error

	// Hooks for test assertions
	ReplaceAllocationsCalls int
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		products:    make(map[int64]*costing.Product),
		sales:       make(map[int64]*costing.SaleRecord),
		costs:       make(map[int64]*costing.Cost),
		allocations: make(map[string][]costing.Allocation),
		nextID:      1,
	}
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) nextIDValue() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// CreateProduct stores a product, enforcing name uniqueness like SQLite.
func (m *MockRepository) CreateProduct(p *costing.Product) error {
	if m.CreateProductErr != nil {
		return m.CreateProductErr
	}
	for _, existing := range m.products {
		if strings.EqualFold(existing.Name, p.Name) {
			return fmt.Errorf("product %q already exists", p.Name)
		}
	}
	p.ID = m.nextIDValue()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	m.products[p.ID] = &copied
	return nil
}

func (m *MockRepository) GetProduct(id int64) (*costing.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *MockRepository) GetProductByName(name string) (*costing.Product, error) {
	for _, p := range m.products {
		if strings.EqualFold(p.Name, name) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) ListProducts(activeOnly bool) ([]costing.Product, error) {
	var out []costing.Product
	for _, p := range m.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockRepository) UpdateProduct(p *costing.Product) error {
	existing, ok := m.products[p.ID]
	if !ok {
		return fmt.Errorf("product %d not found", p.ID)
	}
	*existing = *p
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockRepository) DeactivateProduct(id int64) error {
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d not found", id)
	}
	p.Active = false
	return nil
}

// CreateSale stores a sale, enforcing product/period uniqueness.
func (m *MockRepository) CreateSale(rec *costing.SaleRecord) error {
	if m.CreateSaleErr != nil {
		return m.CreateSaleErr
	}
	for _, existing := range m.sales {
		if existing.ProductID == rec.ProductID && existing.Period == rec.Period {
			return fmt.Errorf("sale for product %d in %s already exists", rec.ProductID, rec.Period)
		}
	}
	rec.ID = m.nextIDValue()
	rec.CreatedAt = time.Now().UTC()
	copied := *rec
	m.sales[rec.ID] = &copied
	return nil
}

func (m *MockRepository) GetSale(id int64) (*costing.SaleRecord, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *MockRepository) GetSaleByProductPeriod(productID int64, period string) (*costing.SaleRecord, error) {
	for _, s := range m.sales {
		if s.ProductID == productID && s.Period == period {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) ListSales(scope costing.Scope) ([]costing.SaleRecord, error) {
	var out []costing.SaleRecord
	for _, s := range m.sales {
		if scope.AllTime || s.Period == scope.Period {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRepository) UpdateSale(rec *costing.SaleRecord) error {
	existing, ok := m.sales[rec.ID]
	if !ok {
		return fmt.Errorf("sale %d not found", rec.ID)
	}
	*existing = *rec
	return nil
}

func (m *MockRepository) CreateCost(c *costing.Cost) error {
	if m.CreateCostErr != nil {
		return m.CreateCostErr
	}
	c.ID = m.nextIDValue()
	c.CreatedAt = time.Now().UTC()
	copied := *c
	m.costs[c.ID] = &copied
	return nil
}

func (m *MockRepository) GetCost(id int64) (*costing.Cost, error) {
	c, ok := m.costs[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *MockRepository) ListCosts(scope costing.Scope) ([]costing.Cost, error) {
	var out []costing.Cost
	for _, c := range m.costs {
		if scope.AllTime || c.Period == scope.Period {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRepository) UpdateCost(c *costing.Cost) error {
	existing, ok := m.costs[c.ID]
	if !ok {
		return fmt.Errorf("cost %d not found", c.ID)
	}
	*existing = *c
	return nil
}

func (m *MockRepository) DeleteCost(id int64) error {
	delete(m.costs, id)
	return nil
}

func (m *MockRepository) ReplaceAllocations(scope costing.Scope, allocations []costing.Allocation) error {
	m.ReplaceAllocationsCalls++
	if m.ReplaceAllocationsErr != nil {
		return m.ReplaceAllocationsErr
	}
	stored := make([]costing.Allocation, len(allocations))
	for i, a := range allocations {
		a.ID = m.nextIDValue()
		a.ScopeKey = scope.Key()
		stored[i] = a
	}
	m.allocations[scope.Key()] = stored
	return nil
}

func (m *MockRepository) ListAllocations(scope costing.Scope) ([]costing.Allocation, error) {
	out := make([]costing.Allocation, len(m.allocations[scope.Key()]))
	copy(out, m.allocations[scope.Key()])
	return out, nil
}

func (m *MockRepository) SaveRun(run *AllocationRun) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MockRepository) ListRuns(limit int) ([]AllocationRun, error) {
	out := make([]AllocationRun, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
