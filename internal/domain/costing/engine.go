package costing

import (
	"errors"
	"sort"
)

// User-correctable preconditions. Both mean "add data and retry", not that
// anything went wrong internally.
var (
	ErrNoCosts = errors.New("no costs found for scope")
	ErrNoSales = errors.New("no sales found for scope")
)

// UnallocatedCost records a cost that produced no allocation rows. Zero-basis
// costs are skipped per-cost, but they must stay visible in reporting rather
// than vanish unexplained.
type UnallocatedCost struct {
	CostID   int64   `json:"cost_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Reason   string  `json:"reason"`
}

// Result is the output of one allocation run before persistence.
type Result struct {
	Scope       Scope
	Allocations []Allocation
	Unallocated []UnallocatedCost
}

// Engine distributes period costs across products proportionally to a
// per-cost basis. It is single-threaded per invocation and pure: it never
// touches storage.
type Engine struct {
	weights UnitWeights
}

// NewEngine creates an engine with the given count-to-weight conversion
// table. A nil table is valid; weight-basis count products then always fall
// back to value.
func NewEngine(weights UnitWeights) *Engine {
	return &Engine{weights: weights.Normalize()}
}

// Allocate runs the allocation over an in-memory snapshot.
//
// For each cost it filters applicable products, computes the per-product
// basis, and splits the amount proportionally. Costs whose total basis is
// zero (or that apply to nothing) are reported as unallocated. Returns
// ErrNoCosts / ErrNoSales when the snapshot is missing inputs.
func (e *Engine) Allocate(scope Scope, costs []Cost, products []Product, sales []SaleRecord) (*Result, error) {
	if len(costs) == 0 {
		return nil, ErrNoCosts
	}
	if len(sales) == 0 {
		return nil, ErrNoSales
	}

	productsByID := make(map[int64]Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}
	salesByProduct := MergeSalesByProduct(sales)

	result := &Result{Scope: scope}

	for _, cost := range costs {
		applicable := applicableProducts(cost, productsByID, salesByProduct)
		if len(applicable) == 0 {
			result.Unallocated = append(result.Unallocated, UnallocatedCost{
				CostID:   cost.ID,
				Name:     cost.Name,
				Category: cost.Category,
				Amount:   cost.Amount,
				Reason:   "no applicable products with sales in scope",
			})
			continue
		}

		var totalBasis float64
		for _, p := range applicable {
			totalBasis += productBasis(cost.Basis, p, salesByProduct[p.ID], e.weights)
		}
		if totalBasis == 0 {
			result.Unallocated = append(result.Unallocated, UnallocatedCost{
				CostID:   cost.ID,
				Name:     cost.Name,
				Category: cost.Category,
				Amount:   cost.Amount,
				Reason:   "total basis is zero",
			})
			continue
		}

		for _, p := range applicable {
			sale := salesByProduct[p.ID]
			basis := productBasis(cost.Basis, p, sale, e.weights)
			if basis <= 0 {
				// Qualifying but zero individual basis: receives nothing.
				continue
			}
			result.Allocations = append(result.Allocations, Allocation{
				ProductID: p.ID,
				SaleID:    sale.ID,
				CostID:    cost.ID,
				ScopeKey:  scope.Key(),
				Amount:    (basis / totalBasis) * cost.Amount,
			})
		}
	}

	return result, nil
}

// applicableProducts returns the products a cost qualifies for, in a stable
// order. Inactive products and products without a sale record in scope are
// never applicable.
func applicableProducts(cost Cost, products map[int64]Product, sales map[int64]*SaleRecord) []Product {
	var out []Product
	for id, sale := range sales {
		if sale == nil {
			continue
		}
		p, ok := products[id]
		if !ok || !p.Active {
			continue
		}
		if costApplies(cost.AppliesTo, p.Source) {
			out = append(out, p)
		}
	}
	// Map iteration order is random; sort for deterministic allocation output.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// costApplies implements the applicability filter. "both" and "all" behave
// identically while only two sources exist; the tags are kept distinct for
// compatibility.
func costApplies(tag AppliesTo, source Source) bool {
	switch tag {
	case AppliesAll:
		return true
	case AppliesInHouse:
		return source == SourceInHouse
	case AppliesOutsourced:
		return source == SourceOutsourced
	case AppliesBoth:
		return source == SourceInHouse || source == SourceOutsourced
	default:
		return false
	}
}

// MergeSalesByProduct folds sale records into one record per product. In a
// single-period scope there is one record per product already; in the
// all-time scope multiple period records are merged by summing quantities
// and deriving a revenue-weighted rate. The first record's ID is kept so
// allocations still reference a real row.
func MergeSalesByProduct(sales []SaleRecord) map[int64]*SaleRecord {
	merged := make(map[int64]*SaleRecord)
	for i := range sales {
		s := sales[i]
		existing, ok := merged[s.ProductID]
		if !ok {
			copied := s
			merged[s.ProductID] = &copied
			continue
		}
		revenue := existing.Revenue() + s.Revenue()
		existing.OutwardQty += s.OutwardQty
		if existing.OutwardQty > 0 {
			existing.OutwardRate = revenue / existing.OutwardQty
		}
		existing.DirectCost += s.DirectCost
		existing.InwardQty += s.InwardQty
		existing.InwardValue += s.InwardValue
		if existing.InwardQty > 0 {
			existing.InwardRate = existing.InwardValue / existing.InwardQty
		}
		existing.InHouseProduction += s.InHouseProduction
		existing.Wastage += s.Wastage
	}
	return merged
}
