package ingest

import (
	"fmt"

	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// LineItem is one normalized row of a sales ledger, after column resolution
// and quantity parsing but before the production split.
type LineItem struct {
	Name        string
	Unit        string
	OutwardQty  float64
	OutwardRate float64
	InwardQty   float64
	InwardRate  float64
	InwardValue float64
	Source      string // declared free-form, e.g. "In-House", "outsourced"
}

// SaleInput is one sale record to persist, with the product identity it
// belongs to. A single line item produces zero, one, or two of these.
type SaleInput struct {
	ProductName       string
	Source            costing.Source
	Unit              string
	OutwardQty        float64
	OutwardRate       float64
	DirectCost        float64
	InwardQty         float64
	InwardRate        float64
	InwardValue       float64
	InHouseProduction float64
	Wastage           float64
}

// SplitLine applies the production split policy to one line item.
//
// Rows with nothing inward and nothing outward are skipped. A missing
// outward side is assumed fully sold from the purchase; a missing inward
// side means everything was grown in-house. When more was sold than
// purchased for a declared-outsourced item, the line splits into an
// outsourced portion (the purchased quantity, valued at the inward rate) and
// an in-house portion (the excess, valued at the outward rate), each keyed
// as a distinct product. The rest of the pipeline treats the two results as
// fully independent products.
func SplitLine(item LineItem) []SaleInput {
	outward := item.OutwardQty
	outwardRate := item.OutwardRate
	inward := item.InwardQty
	inwardRate := item.InwardRate
	inwardValue := item.InwardValue

	if outward <= 0 && inward <= 0 {
		return nil
	}

	unit := item.Unit
	if unit == "" {
		unit = DefaultUnit
	}
	source := costing.ParseSource(item.Source)

	if outward <= 0 {
		// Nothing recorded as sold: assume the full purchase was sold.
		outward = inward
		outwardRate = inwardRate
	}
	if inward <= 0 {
		inward, inwardRate, inwardValue = 0, 0, 0
	}
	if inwardValue == 0 && inward > 0 {
		inwardValue = inward * inwardRate
	}

	diff := outward - inward
	production := diff
	if production < 0 {
		production = 0
	}
	wastage := -diff
	if wastage < 0 {
		wastage = 0
	}

	if diff > 0 && source == costing.SourceOutsourced && inward > 0 {
		// More sold than purchased for a nominally outsourced item: the
		// excess is in-house production and becomes its own product.
		outsourced := SaleInput{
			ProductName: splitProductName(item.Name, costing.SourceOutsourced),
			Source:      costing.SourceOutsourced,
			Unit:        unit,
			OutwardQty:  inward,
			OutwardRate: inwardRate,
			DirectCost:  inwardValue,
			InwardQty:   inward,
			InwardRate:  inwardRate,
			InwardValue: inwardValue,
		}
		inhouse := SaleInput{
			ProductName:       splitProductName(item.Name, costing.SourceInHouse),
			Source:            costing.SourceInHouse,
			Unit:              unit,
			OutwardQty:        diff,
			OutwardRate:       outwardRate,
			InHouseProduction: diff,
		}
		return []SaleInput{outsourced, inhouse}
	}

	effectiveSource := source
	if inward <= 0 {
		effectiveSource = costing.SourceInHouse
	}

	return []SaleInput{{
		ProductName:       item.Name,
		Source:            effectiveSource,
		Unit:              unit,
		OutwardQty:        outward,
		OutwardRate:       outwardRate,
		DirectCost:        inwardValue,
		InwardQty:         inward,
		InwardRate:        inwardRate,
		InwardValue:       inwardValue,
		InHouseProduction: production,
		Wastage:           wastage,
	}}
}

// splitProductName keys the two halves of a split line as distinct products.
func splitProductName(name string, source costing.Source) string {
	return fmt.Sprintf("%s (%s)", name, source.Display())
}
