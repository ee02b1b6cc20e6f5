package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixture() ([]Product, []SaleRecord, []Cost, []Allocation) {
	products := []Product{
		{ID: 1, Name: "Pineapple", Source: SourceInHouse, Unit: "kg", Active: true},
		{ID: 2, Name: "Watermelon", Source: SourceOutsourced, Unit: "kg", Active: true},
	}
	sales := []SaleRecord{
		{ID: 10, ProductID: 1, Period: "2025-10", OutwardQty: 100, OutwardRate: 10},
		{ID: 11, ProductID: 2, Period: "2025-10", OutwardQty: 50, OutwardRate: 20, DirectCost: 600},
	}
	costs := []Cost{
		{ID: 100, Name: "Freight", Amount: 300, Category: "transport", Period: "2025-10"},
	}
	allocations := []Allocation{
		{ProductID: 1, SaleID: 10, CostID: 100, ScopeKey: "2025-10", Amount: 150},
		{ProductID: 2, SaleID: 11, CostID: 100, ScopeKey: "2025-10", Amount: 150},
	}
	return products, sales, costs, allocations
}

func TestBuildReport_Totals(t *testing.T) {
	products, sales, costs, allocations := reportFixture()

	report := BuildReport(Scope{Period: "2025-10"}, products, sales, costs, allocations, nil)

	assert.Equal(t, "2025-10", report.Scope)
	assert.InDelta(t, 2000.0, report.TotalRevenue, 0.001)
	// 600 direct + 300 allocated.
	assert.InDelta(t, 900.0, report.TotalCosts, 0.001)
	assert.InDelta(t, 1100.0, report.TotalProfit, 0.001)
	assert.InDelta(t, 55.0, report.ProfitMargin, 0.001)
}

func TestBuildReport_ProductRows(t *testing.T) {
	products, sales, costs, allocations := reportFixture()

	report := BuildReport(Scope{Period: "2025-10"}, products, sales, costs, allocations, nil)
	require.Len(t, report.Products, 2)

	rows := make(map[int64]ProductRow)
	for _, row := range report.Products {
		rows[row.ProductID] = row
	}

	pineapple := rows[1]
	assert.InDelta(t, 1000.0, pineapple.Revenue, 0.001)
	assert.InDelta(t, 150.0, pineapple.AllocatedCost, 0.001)
	assert.InDelta(t, 150.0, pineapple.TotalCost, 0.001)
	assert.InDelta(t, 850.0, pineapple.Profit, 0.001)
	assert.InDelta(t, 1.5, pineapple.CostPerUnit, 0.001)
	assert.InDelta(t, 85.0, pineapple.ProfitMargin, 0.001)
	require.Len(t, pineapple.Allocations, 1)
	assert.Equal(t, "Freight", pineapple.Allocations[0].CostName)

	watermelon := rows[2]
	assert.InDelta(t, 600.0, watermelon.DirectCost, 0.001)
	assert.InDelta(t, 750.0, watermelon.TotalCost, 0.001)
	assert.InDelta(t, 250.0, watermelon.Profit, 0.001)
}

func TestBuildReport_SourceSummaries(t *testing.T) {
	products, sales, costs, allocations := reportFixture()

	report := BuildReport(Scope{Period: "2025-10"}, products, sales, costs, allocations, nil)

	assert.InDelta(t, 1000.0, report.InHouseSummary.Revenue, 0.001)
	assert.InDelta(t, 150.0, report.InHouseSummary.Costs, 0.001)
	assert.InDelta(t, 850.0, report.InHouseSummary.Profit, 0.001)

	assert.InDelta(t, 1000.0, report.OutsourcedSummary.Revenue, 0.001)
	assert.InDelta(t, 750.0, report.OutsourcedSummary.Costs, 0.001)
	assert.InDelta(t, 25.0, report.OutsourcedSummary.ProfitMargin, 0.001)
}

func TestBuildReport_CostBreakdownAndUnallocated(t *testing.T) {
	products, sales, costs, allocations := reportFixture()
	unallocated := []UnallocatedCost{
		{CostID: 101, Name: "Commission paid", Amount: 75, Reason: "total basis is zero"},
	}

	report := BuildReport(Scope{Period: "2025-10"}, products, sales, costs, allocations, unallocated)

	assert.InDelta(t, 300.0, report.CostBreakdown["transport"], 0.001)
	require.Len(t, report.Unallocated, 1)
	assert.InDelta(t, 75.0, report.UnallocatedTotal, 0.001)
}

func TestBuildReport_RankingAndTopProducts(t *testing.T) {
	var products []Product
	var sales []SaleRecord
	for i := int64(1); i <= 7; i++ {
		products = append(products, Product{ID: i, Name: "P", Source: SourceInHouse, Unit: "kg", Active: true})
		sales = append(sales, SaleRecord{
			ID: 100 + i, ProductID: i, Period: "2025-10",
			OutwardQty: float64(i), OutwardRate: 10,
		})
	}

	report := BuildReport(Scope{Period: "2025-10"}, products, sales, nil, nil, nil)
	require.Len(t, report.Products, 7)
	require.Len(t, report.TopProducts, 5)

	// Sorted by profit, most profitable first.
	assert.InDelta(t, 70.0, report.Products[0].Profit, 0.001)
	for i := 1; i < len(report.Products); i++ {
		assert.GreaterOrEqual(t, report.Products[i-1].Profit, report.Products[i].Profit)
	}
}

func TestBuildReport_ZeroRevenueGuards(t *testing.T) {
	products := []Product{{ID: 1, Name: "Idle", Source: SourceInHouse, Unit: "kg", Active: true}}
	sales := []SaleRecord{{ID: 10, ProductID: 1, Period: "2025-10"}}

	report := BuildReport(Scope{Period: "2025-10"}, products, sales, nil, nil, nil)
	require.Len(t, report.Products, 1)

	assert.Equal(t, 0.0, report.Products[0].ProfitMargin)
	assert.Equal(t, 0.0, report.Products[0].CostPerUnit)
	assert.Equal(t, 0.0, report.ProfitMargin)
}
