package models

// PricingBreakdown is always produced by the pricing engine, never mutated
// field by field, so FinalPrice == BasePrice - Discount holds everywhere.
type PricingBreakdown struct {
	BasePrice  float64 `json:"base_price"`
	Discount   float64 `json:"discount"`
	FinalPrice float64 `json:"final_price"`
	Currency   string  `json:"currency"`
}
