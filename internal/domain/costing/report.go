package costing

import "sort"

// topProductCount is how many products the ranked highlight list carries.
const topProductCount = 5

// AllocationLine is one cost's share of a product's allocated cost, for the
// per-product breakdown in the report.
type AllocationLine struct {
	CostName string  `json:"cost_name"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// ProductRow is one product's profitability line in the report.
type ProductRow struct {
	ProductID     int64            `json:"product_id"`
	ProductName   string           `json:"product_name"`
	Source        Source           `json:"source"`
	Unit          string           `json:"unit"`
	Quantity      float64          `json:"quantity"`
	SalePrice     float64          `json:"sale_price"`
	DirectCost    float64          `json:"direct_cost"`
	AllocatedCost float64          `json:"allocated_cost"`
	TotalCost     float64          `json:"total_cost"`
	Revenue       float64          `json:"revenue"`
	Profit        float64          `json:"profit"`
	CostPerUnit   float64          `json:"cost_per_unit"`
	ProfitMargin  float64          `json:"profit_margin"`
	Allocations   []AllocationLine `json:"allocations"`
}

// SourceSummary aggregates revenue, cost, and profit for one source.
type SourceSummary struct {
	Revenue      float64 `json:"revenue"`
	Costs        float64 `json:"costs"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// Report is the structured output of an allocation run (or of a re-read of
// persisted allocations).
type Report struct {
	Scope             string            `json:"scope"`
	Products          []ProductRow      `json:"products"`
	TotalRevenue      float64           `json:"total_revenue"`
	TotalCosts        float64           `json:"total_costs"`
	TotalProfit       float64           `json:"total_profit"`
	ProfitMargin      float64           `json:"profit_margin"`
	InHouseSummary    SourceSummary     `json:"inhouse_summary"`
	OutsourcedSummary SourceSummary     `json:"outsourced_summary"`
	CostBreakdown     map[string]float64 `json:"cost_breakdown"`
	Unallocated       []UnallocatedCost `json:"unallocated"`
	UnallocatedTotal  float64           `json:"unallocated_total"`
	TopProducts       []ProductRow      `json:"top_products"`
}

// BuildReport folds allocations into per-product profitability rows,
// source-wise summaries, a category breakdown, and a top-N ranking.
//
// Division guards: margins and cost-per-unit are 0 whenever the denominator
// is not positive.
func BuildReport(scope Scope, products []Product, sales []SaleRecord, costs []Cost, allocations []Allocation, unallocated []UnallocatedCost) *Report {
	productsByID := make(map[int64]Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}
	costsByID := make(map[int64]Cost, len(costs))
	for _, c := range costs {
		costsByID[c.ID] = c
	}
	salesByProduct := MergeSalesByProduct(sales)

	allocsByProduct := make(map[int64][]Allocation)
	for _, a := range allocations {
		allocsByProduct[a.ProductID] = append(allocsByProduct[a.ProductID], a)
	}

	report := &Report{
		Scope:         scope.Key(),
		CostBreakdown: make(map[string]float64),
		Unallocated:   unallocated,
	}

	var inhouse, outsourced SourceSummary

	for productID, sale := range salesByProduct {
		product, ok := productsByID[productID]
		if !ok {
			continue
		}

		var allocated float64
		var lines []AllocationLine
		for _, a := range allocsByProduct[productID] {
			allocated += a.Amount
			cost := costsByID[a.CostID]
			category := cost.Category
			if category == "" {
				category = "general"
			}
			report.CostBreakdown[category] += a.Amount
			lines = append(lines, AllocationLine{
				CostName: cost.Name,
				Category: category,
				Amount:   a.Amount,
			})
		}

		revenue := sale.Revenue()
		totalCost := sale.DirectCost + allocated
		profit := revenue - totalCost

		row := ProductRow{
			ProductID:     productID,
			ProductName:   product.Name,
			Source:        product.Source,
			Unit:          product.Unit,
			Quantity:      sale.OutwardQty,
			SalePrice:     sale.OutwardRate,
			DirectCost:    sale.DirectCost,
			AllocatedCost: allocated,
			TotalCost:     totalCost,
			Revenue:       revenue,
			Profit:        profit,
			CostPerUnit:   safeDiv(totalCost, sale.OutwardQty),
			ProfitMargin:  safeDiv(profit, revenue) * 100,
			Allocations:   lines,
		}
		report.Products = append(report.Products, row)

		report.TotalRevenue += revenue
		report.TotalCosts += totalCost
		if product.Source == SourceInHouse {
			inhouse.Revenue += revenue
			inhouse.Costs += totalCost
		} else {
			outsourced.Revenue += revenue
			outsourced.Costs += totalCost
		}
	}

	report.TotalProfit = report.TotalRevenue - report.TotalCosts
	report.ProfitMargin = safeDiv(report.TotalProfit, report.TotalRevenue) * 100

	inhouse.Profit = inhouse.Revenue - inhouse.Costs
	inhouse.ProfitMargin = safeDiv(inhouse.Profit, inhouse.Revenue) * 100
	outsourced.Profit = outsourced.Revenue - outsourced.Costs
	outsourced.ProfitMargin = safeDiv(outsourced.Profit, outsourced.Revenue) * 100
	report.InHouseSummary = inhouse
	report.OutsourcedSummary = outsourced

	for _, u := range unallocated {
		report.UnallocatedTotal += u.Amount
	}

	sort.Slice(report.Products, func(i, j int) bool {
		return report.Products[i].Profit > report.Products[j].Profit
	})

	top := topProductCount
	if len(report.Products) < top {
		top = len(report.Products)
	}
	report.TopProducts = report.Products[:top]

	return report
}

// safeDiv returns a/b, defined as 0 when b is not positive.
func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
