package dto

// ProductRequest is the body for creating or updating a product.
type ProductRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Unit   string `json:"unit"`
	Active *bool  `json:"active,omitempty"`
}

// SaleRequest is the body for creating or updating a sale record.
type SaleRequest struct {
	ProductID   int64   `json:"product_id"`
	Period      string  `json:"period"`
	OutwardQty  float64 `json:"outward_qty"`
	OutwardRate float64 `json:"outward_rate"`
	InwardQty   float64 `json:"inward_qty"`
	InwardRate  float64 `json:"inward_rate"`
	InwardValue float64 `json:"inward_value"`
}

// CostRequest is the body for creating or updating a cost.
type CostRequest struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	AppliesTo string  `json:"applies_to"`
	Basis     string  `json:"basis"`
	Category  string  `json:"category"`
	Period    string  `json:"period"`
}
