// Package costing contains the cost allocation core: the shared data model,
// the allocation engine, basis computation, and the report aggregator.
//
// The engine operates on plain in-memory snapshots of products, sales, and
// costs. Storage and HTTP are external collaborators that feed it records
// and persist its output.
package costing

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a product comes from.
type Source string

const (
	SourceInHouse    Source = "inhouse"
	SourceOutsourced Source = "outsourced"
)

// ParseSource normalizes a free-form source declaration ("In-House",
// "in house", "OUTSOURCED", ...) to a canonical Source. Anything that does
// not read as in-house is treated as outsourced.
func ParseSource(raw string) Source {
	s := strings.ToLower(raw)
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	switch s {
	case "inhouse", "house", "own", "internal", "farm":
		return SourceInHouse
	default:
		return SourceOutsourced
	}
}

// Display returns the human-readable form used when naming split products.
func (s Source) Display() string {
	if s == SourceInHouse {
		return "In-House"
	}
	return "Outsourced"
}

// AppliesTo declares which product sources a cost is distributed over.
type AppliesTo string

const (
	AppliesInHouse    AppliesTo = "inhouse"
	AppliesOutsourced AppliesTo = "outsourced"
	AppliesBoth       AppliesTo = "both"
	AppliesAll        AppliesTo = "all"
)

// Valid reports whether the tag is one of the four known values.
func (a AppliesTo) Valid() bool {
	switch a {
	case AppliesInHouse, AppliesOutsourced, AppliesBoth, AppliesAll:
		return true
	}
	return false
}

// Basis selects the quantity a cost is proportioned by.
type Basis string

const (
	BasisWeight Basis = "weight"
	BasisValue  Basis = "value"
	BasisTrips  Basis = "trips"
)

// Valid reports whether the basis is one of the three known values.
func (b Basis) Valid() bool {
	switch b {
	case BasisWeight, BasisValue, BasisTrips:
		return true
	}
	return false
}

// Scope identifies the slice of data an allocation run operates on: one
// period ("2025-10") or everything merged. The all-time mode is an explicit
// flag so the merged-periods behavior is never an implicit switch.
type Scope struct {
	Period  string
	AllTime bool
}

// Key returns a stable string identifying the scope, used for allocation
// ownership and run serialization.
func (s Scope) Key() string {
	if s.AllTime {
		return "all-time"
	}
	return s.Period
}

func (s Scope) String() string {
	if s.AllTime {
		return "all-time"
	}
	return fmt.Sprintf("period %s", s.Period)
}

// Product is a produce item sold in a period. Name is the natural key used
// for deduplication during ingestion. Products are deactivated, never
// physically deleted.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Source    Source    `json:"source"`
	Unit      string    `json:"unit"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaleRecord holds one product's movement for one period: what was sold
// (outward) and what was purchased (inward), plus the derived production and
// wastage figures.
//
// Invariant: InHouseProduction = max(0, outward-inward) and
// Wastage = max(0, inward-outward); the two are mutually exclusive.
type SaleRecord struct {
	ID                int64   `json:"id"`
	ProductID         int64   `json:"product_id"`
	Period            string  `json:"period"`
	OutwardQty        float64 `json:"outward_qty"`
	OutwardRate       float64 `json:"outward_rate"`
	DirectCost        float64 `json:"direct_cost"`
	InwardQty         float64 `json:"inward_qty"`
	InwardRate        float64 `json:"inward_rate"`
	InwardValue       float64 `json:"inward_value"`
	InHouseProduction float64 `json:"inhouse_production"`
	Wastage           float64 `json:"wastage"`
	CreatedAt         time.Time `json:"created_at"`
}

// Revenue is outward quantity times sale rate.
func (s *SaleRecord) Revenue() float64 {
	return s.OutwardQty * s.OutwardRate
}

// Cost is one shared or source-specific expense to distribute. The
// classification metadata (OriginAmount, SplitRatio, SourceTag) records how
// the cost was derived from a P&L line so the split can be reconciled
// against the source statement.
type Cost struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Amount       float64   `json:"amount"`
	AppliesTo    AppliesTo `json:"applies_to"`
	Basis        Basis     `json:"basis"`
	Category     string    `json:"category"`
	Period       string    `json:"period"`
	OriginAmount float64   `json:"origin_amount,omitempty"`
	SplitRatio   float64   `json:"split_ratio,omitempty"`
	SourceTag    string    `json:"source_tag,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Allocation links one cost to one product/sale with the amount it received.
// Allocations are owned by a single run: a new run over the same scope
// replaces all of them atomically.
type Allocation struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	SaleID    int64   `json:"sale_id"`
	CostID    int64   `json:"cost_id"`
	ScopeKey  string  `json:"scope_key"`
	Amount    float64 `json:"allocated_amount"`
}

// countUnits are the unit tokens treated as "each"-like counts rather than
// weights. Comparison is done on the upper-cased token.
var countUnits = map[string]bool{
	"EA":    true,
	"EACH":  true,
	"PC":    true,
	"PCS":   true,
	"UNIT":  true,
	"UNITS": true,
}

// IsCountUnit reports whether the unit denotes a count of items (each,
// piece, unit) rather than a weight.
func IsCountUnit(unit string) bool {
	return countUnits[strings.ToUpper(strings.TrimSpace(unit))]
}
