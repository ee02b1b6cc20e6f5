// Package pnl classifies profit & loss line items into costs attributable to
// in-house production, outsourced goods, or both, splitting shared amounts
// by the period's revenue ratio.
package pnl

import (
	"strings"

	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// Class tags a P&L line item.
type Class string

const (
	ClassInHouse    Class = "I" // in-house only
	ClassOutsourced Class = "O" // outsourced only
	ClassShared     Class = "B" // shared, split by revenue ratio
)

// Table is the static classification lookup, externalized as configuration:
// known line-item names mapped to a class, names that are revenue/trading
// lines and must be dropped before classification, and optional category
// tags for reporting. Unrecognized names default to shared.
type Table struct {
	Classes    map[string]Class
	Excluded   []string
	Categories map[string]string
}

// ClassFor looks up a line item's class, case-insensitively. Unknown names
// are shared.
func (t Table) ClassFor(name string) Class {
	c, ok := t.Classes[normalizeName(name)]
	if !ok {
		return ClassShared
	}
	return c
}

// IsExcluded reports whether the line is a revenue/trading-account line that
// must not be emitted as a cost.
func (t Table) IsExcluded(name string) bool {
	n := normalizeName(name)
	for _, e := range t.Excluded {
		if normalizeName(e) == n {
			return true
		}
	}
	return false
}

// CategoryFor returns the reporting category for a line item, defaulting to
// "general".
func (t Table) CategoryFor(name string) string {
	if c, ok := t.Categories[normalizeName(name)]; ok {
		return c
	}
	return "general"
}

// Normalize lower-cases the table's keys so lookups are insensitive to the
// config file's spelling.
func (t Table) Normalize() Table {
	out := Table{
		Classes:    make(map[string]Class, len(t.Classes)),
		Excluded:   t.Excluded,
		Categories: make(map[string]string, len(t.Categories)),
	}
	for name, class := range t.Classes {
		out.Classes[normalizeName(name)] = class
	}
	for name, category := range t.Categories {
		out.Categories[normalizeName(name)] = category
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Ratio is the in-house/outsourced split applied to shared lines. The two
// shares always sum to 1.
type Ratio struct {
	InHouse    float64 `json:"inhouse"`
	Outsourced float64 `json:"outsourced"`
}

// DefaultRatio is the fixed fallback when neither revenue nor quantity can
// establish a split: an even 50/50, matching the system's historical
// behavior for shared costs with no sales signal.
var DefaultRatio = Ratio{InHouse: 0.5, Outsourced: 0.5}

// RevenueRatio computes the in-house share of revenue from existing sale
// records. If total revenue is zero it falls back to sold quantity; if total
// quantity is also zero it falls back to DefaultRatio.
func RevenueRatio(products map[int64]costing.Product, sales []costing.SaleRecord) Ratio {
	var inRevenue, outRevenue, inQty, outQty float64
	for i := range sales {
		s := &sales[i]
		p, ok := products[s.ProductID]
		if !ok {
			continue
		}
		if p.Source == costing.SourceInHouse {
			inRevenue += s.Revenue()
			inQty += s.OutwardQty
		} else {
			outRevenue += s.Revenue()
			outQty += s.OutwardQty
		}
	}

	if total := inRevenue + outRevenue; total > 0 {
		return Ratio{InHouse: inRevenue / total, Outsourced: outRevenue / total}
	}
	if total := inQty + outQty; total > 0 {
		return Ratio{InHouse: inQty / total, Outsourced: outQty / total}
	}
	return DefaultRatio
}

// LineItem is one parsed (name, amount) pair from a P&L statement.
type LineItem struct {
	Name   string
	Amount float64
}

// Classify maps P&L line items to costs. Excluded revenue lines are dropped.
// In-house-only and outsourced-only lines emit one cost each at ratio 1.0;
// shared lines emit two costs carrying their share of the original amount
// and the ratio used, so the split can be audited against the statement.
// New costs default to the value basis.
func Classify(lines []LineItem, table Table, ratio Ratio, period string) []costing.Cost {
	table = table.Normalize()

	var costs []costing.Cost
	for _, line := range lines {
		if table.IsExcluded(line.Name) {
			continue
		}
		category := table.CategoryFor(line.Name)

		switch table.ClassFor(line.Name) {
		case ClassInHouse:
			costs = append(costs, newCost(line, costing.AppliesInHouse, category, 1.0, line.Amount, period))
		case ClassOutsourced:
			costs = append(costs, newCost(line, costing.AppliesOutsourced, category, 1.0, line.Amount, period))
		default:
			costs = append(costs,
				newCost(line, costing.AppliesInHouse, category, ratio.InHouse, line.Amount*ratio.InHouse, period),
				newCost(line, costing.AppliesOutsourced, category, ratio.Outsourced, line.Amount*ratio.Outsourced, period),
			)
		}
	}
	return costs
}

func newCost(line LineItem, applies costing.AppliesTo, category string, ratio, amount float64, period string) costing.Cost {
	return costing.Cost{
		Name:         line.Name,
		Amount:       amount,
		AppliesTo:    applies,
		Basis:        costing.BasisValue,
		Category:     category,
		Period:       period,
		OriginAmount: line.Amount,
		SplitRatio:   ratio,
		SourceTag:    "pnl:" + period,
	}
}
