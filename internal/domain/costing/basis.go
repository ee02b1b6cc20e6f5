package costing

import "strings"

// UnitWeights maps product names to a per-item weight in grams, used to
// convert count-unit quantities ("12 EA") into kilograms so they can share a
// weight basis with kg products. The table is loaded from configuration.
type UnitWeights map[string]float64

// GramsFor looks up the per-item gram weight for a product name,
// case-insensitively.
func (w UnitWeights) GramsFor(name string) (float64, bool) {
	g, ok := w[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// Normalize lower-cases all keys so lookups are case-insensitive regardless
// of how the config file spells product names.
func (w UnitWeights) Normalize() UnitWeights {
	out := make(UnitWeights, len(w))
	for name, grams := range w {
		out[strings.ToLower(strings.TrimSpace(name))] = grams
	}
	return out
}

// productBasis computes the allocation basis for one qualifying product.
//
// weight: sold quantity, except count-unit products are converted to kg via
// the unit-weight table; with no table entry the basis falls back to
// monetary value. trips: quantity as a proxy, with the same value fallback
// for count units to avoid unit distortion. value: quantity times rate.
func productBasis(basis Basis, product Product, sale *SaleRecord, weights UnitWeights) float64 {
	switch basis {
	case BasisWeight:
		if IsCountUnit(product.Unit) {
			if grams, ok := weights.GramsFor(product.Name); ok {
				return sale.OutwardQty * grams / 1000.0
			}
			return sale.Revenue()
		}
		return sale.OutwardQty
	case BasisValue:
		return sale.Revenue()
	case BasisTrips:
		if IsCountUnit(product.Unit) {
			return sale.Revenue()
		}
		return sale.OutwardQty
	default:
		return 0
	}
}
