package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() ([]Product, []SaleRecord) {
	products := []Product{
		{ID: 1, Name: "Pineapple", Source: SourceInHouse, Unit: "kg", Active: true},
		{ID: 2, Name: "Watermelon", Source: SourceOutsourced, Unit: "kg", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 100, OutwardRate: 10},
		{ID: 11, ProductID: 2, Period: "2025-10", OutwardQty: 50, OutwardRate: 20},
	}
	return products, sales
}

func TestAllocate_ValueBasisEvenSplit(t *testing.T) {
	// Revenue is 1000 for each product, so a 300 freight cost over the
	// value basis lands 150/150.
	products, sales := fixture()
	costs := []Cost{
		{ID: 100, Name: "Freight", Amount: 300, AppliesTo: AppliesAll, Basis: BasisValue, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)

	require.Len(t, result.Allocations, 2)
	assert.Empty(t, result.Unallocated)

	byProduct := make(map[int64]float64)
	for _, a := range result.Allocations {
		byProduct[a.ProductID] = a.Amount
		assert.Equal(t, int64(100), a.CostID)
		assert.Equal(t, "2025-10", a.ScopeKey)
	}
	assert.InDelta(t, 150.0, byProduct[1], 0.001)
	assert.InDelta(t, 150.0, byProduct[2], 0.001)
}

func TestAllocate_WeightBasis(t *testing.T) {
	products, sales := fixture()
	costs := []Cost{
		{ID: 100, Name: "Cold storage", Amount: 300, AppliesTo: AppliesAll, Basis: BasisWeight, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)

	// kg quantities are the basis directly: 100 vs 50.
	byProduct := make(map[int64]float64)
	for _, a := range result.Allocations {
		byProduct[a.ProductID] = a.Amount
	}
	assert.InDelta(t, 200.0, byProduct[1], 0.001)
	assert.InDelta(t, 100.0, byProduct[2], 0.001)
}

func TestAllocate_WeightBasisCountUnitUsesWeightTable(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "Pineapple", Source: SourceInHouse, Unit: "pcs", Active: true},
		{ID: 2, Name: "Watermelon", Source: SourceInHouse, Unit: "pcs", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 10, OutwardRate: 50},
		{ID: 11, ProductID: 2, Period: "2025-10", OutwardQty: 10, OutwardRate: 80},
	}
	costs := []Cost{
		{ID: 100, Name: "Transport", Amount: 420, AppliesTo: AppliesAll, Basis: BasisWeight, Period: "2025-10"},
	}

	// 10 pineapples at 1.2kg = 12kg, 10 watermelons at 3kg = 30kg.
	engine := NewEngine(UnitWeights{"pineapple": 1200, "watermelon": 3000})
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)

	byProduct := make(map[int64]float64)
	for _, a := range result.Allocations {
		byProduct[a.ProductID] = a.Amount
	}
	assert.InDelta(t, 120.0, byProduct[1], 0.001)
	assert.InDelta(t, 300.0, byProduct[2], 0.001)
}

func TestAllocate_WeightBasisCountUnitWithoutWeightFallsBackToValue(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "Mystery fruit", Source: SourceInHouse, Unit: "pcs", Active: true},
		{ID: 2, Name: "Other fruit", Source: SourceInHouse, Unit: "pcs", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 10, OutwardRate: 30},
		{ID: 11, ProductID: 2, Period: "2025-10", OutwardQty: 10, OutwardRate: 10},
	}
	costs := []Cost{
		{ID: 100, Name: "Transport", Amount: 400, AppliesTo: AppliesAll, Basis: BasisWeight, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)

	// Revenue 300 vs 100.
	byProduct := make(map[int64]float64)
	for _, a := range result.Allocations {
		byProduct[a.ProductID] = a.Amount
	}
	assert.InDelta(t, 300.0, byProduct[1], 0.001)
	assert.InDelta(t, 100.0, byProduct[2], 0.001)
}

func TestAllocate_ApplicabilityFilter(t *testing.T) {
	products, sales := fixture()

	tests := []struct {
		name      string
		appliesTo AppliesTo
		want      map[int64]float64
	}{
		{"inhouse only", AppliesInHouse, map[int64]float64{1: 300}},
		{"outsourced only", AppliesOutsourced, map[int64]float64{2: 300}},
		{"both spans sources", AppliesBoth, map[int64]float64{1: 150, 2: 150}},
		{"all spans sources", AppliesAll, map[int64]float64{1: 150, 2: 150}},
	}

	engine := NewEngine(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			costs := []Cost{
				{ID: 100, Name: "Cost", Amount: 300, AppliesTo: tt.appliesTo, Basis: BasisValue, Period: "2025-10"},
			}
			result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
			require.NoError(t, err)

			got := make(map[int64]float64)
			for _, a := range result.Allocations {
				got[a.ProductID] = a.Amount
			}
			require.Len(t, got, len(tt.want))
			for id, amount := range tt.want {
				assert.InDelta(t, amount, got[id], 0.001)
			}
		})
	}
}

func TestAllocate_ZeroBasisReportedUnallocated(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "Pineapple", Source: SourceInHouse, Unit: "kg", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 100, OutwardRate: 10},
	}
	costs := []Cost{
		{ID: 100, Name: "Commission paid", Amount: 200, AppliesTo: AppliesOutsourced, Basis: BasisValue, Period: "2025-10"},
		{ID: 101, Name: "Freight", Amount: 300, AppliesTo: AppliesAll, Basis: BasisValue, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)

	// No outsourced products exist, so the commission is skipped but
	// surfaced, and the freight still allocates fully.
	require.Len(t, result.Unallocated, 1)
	assert.Equal(t, int64(100), result.Unallocated[0].CostID)
	assert.NotEmpty(t, result.Unallocated[0].Reason)

	require.Len(t, result.Allocations, 1)
	assert.InDelta(t, 300.0, result.Allocations[0].Amount, 0.001)
}

func TestAllocate_ConservationOfAmounts(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "A", Source: SourceInHouse, Unit: "kg", Active: true},
		{ID: 2, Name: "B", Source: SourceInHouse, Unit: "kg", Active: true},
		{ID: 3, Name: "C", Source: SourceOutsourced, Unit: "kg", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 33.7, OutwardRate: 12.13},
		{ID: 11, ProductID: 2, Period: "2025-10", OutwardQty: 12.1, OutwardRate: 7.77},
		{ID: 12, ProductID: 3, Period: "2025-10", OutwardQty: 99.9, OutwardRate: 3.33},
	}
	costs := []Cost{
		{ID: 100, Name: "Freight", Amount: 1234.56, AppliesTo: AppliesAll, Basis: BasisValue, Period: "2025-10"},
		{ID: 101, Name: "Labour", Amount: 777.77, AppliesTo: AppliesInHouse, Basis: BasisWeight, Period: "2025-10"},
		{ID: 102, Name: "Carriage", Amount: 55.5, AppliesTo: AppliesOutsourced, Basis: BasisTrips, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)
	require.Empty(t, result.Unallocated)

	totals := make(map[int64]float64)
	for _, a := range result.Allocations {
		totals[a.CostID] += a.Amount
	}
	for _, c := range costs {
		assert.InDelta(t, c.Amount, totals[c.ID], 1e-6, "cost %s", c.Name)
	}
}

func TestAllocate_PreconditionErrors(t *testing.T) {
	products, sales := fixture()
	costs := []Cost{
		{ID: 100, Name: "Freight", Amount: 300, AppliesTo: AppliesAll, Basis: BasisValue, Period: "2025-10"},
	}
	engine := NewEngine(nil)

	_, err := engine.Allocate(Scope{Period: "2025-10"}, nil, products, sales)
	assert.ErrorIs(t, err, ErrNoCosts)

	_, err = engine.Allocate(Scope{Period: "2025-10"}, costs, products, nil)
	assert.ErrorIs(t, err, ErrNoSales)
}

func TestAllocate_InactiveProductsExcluded(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "Pineapple", Source: SourceInHouse, Unit: "kg", Active: true},
		{ID: 2, Name: "Retired", Source: SourceInHouse, Unit: "kg", Active: false},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 100, OutwardRate: 10},
		{ID: 11, ProductID: 2, Period: "2025-10", OutwardQty: 100, OutwardRate: 10},
	}
	costs := []Cost{
		{ID: 100, Name: "Freight", Amount: 300, AppliesTo: AppliesAll, Basis: BasisValue, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{Period: "2025-10"}, costs, products, sales)
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, int64(1), result.Allocations[0].ProductID)
	assert.InDelta(t, 300.0, result.Allocations[0].Amount, 0.001)
}

func TestMergeSalesByProduct(t *testing.T) {
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-09", OutwardQty: 100, OutwardRate: 10},
		{ID: 11, ProductID: 1, Period: "2025-10", OutwardQty: 50, OutwardRate: 16},
		{ID: 12, ProductID: 2, Period: "2025-10", OutwardQty: 10, OutwardRate: 5},
	}

	merged := MergeSalesByProduct(sales)
	require.Len(t, merged, 2)

	one := merged[1]
	assert.InDelta(t, 150.0, one.OutwardQty, 0.001)
	// 1000 + 800 revenue over 150 units.
	assert.InDelta(t, 12.0, one.OutwardRate, 0.001)
	assert.Equal(t, int64(10), one.ID)
}

func TestAllocate_AllTimeScopeMergesPeriods(t *testing.T) {
	products := []Product{
		{ID: 1, Name: "Pineapple", Source: SourceInHouse, Unit: "kg", Active: true},
		{ID: 2, Name: "Watermelon", Source: SourceInHouse, Unit: "kg", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-09", OutwardQty: 30, OutwardRate: 10},
		{ID: 11, ProductID: 1, Period: "2025-10", OutwardQty: 70, OutwardRate: 10},
		{ID: 12, ProductID: 2, Period: "2025-10", OutwardQty: 100, OutwardRate: 10},
	}
	costs := []Cost{
		{ID: 100, Name: "Rent", Amount: 600, AppliesTo: AppliesAll, Basis: BasisValue, Period: "2025-10"},
	}

	engine := NewEngine(nil)
	result, err := engine.Allocate(Scope{AllTime: true}, costs, products, sales)
	require.NoError(t, err)

	byProduct := make(map[int64]float64)
	for _, a := range result.Allocations {
		byProduct[a.ProductID] += a.Amount
		assert.Equal(t, "all-time", a.ScopeKey)
	}
	assert.InDelta(t, 300.0, byProduct[1], 0.001)
	assert.InDelta(t, 300.0, byProduct[2], 0.001)
}
