package pricing

import "weyfar-booking/internal/models"

// ComputePricing builds a pricing breakdown from a base price and a discount
// amount. Negative inputs are treated as zero and the discount is capped at
// the base price, so the final price can never go negative.
func ComputePricing(basePrice, discount float64, currency string) models.PricingBreakdown {
	if basePrice < 0 {
		basePrice = 0
	}
	if discount < 0 {
		discount = 0
	}
	if discount > basePrice {
		discount = basePrice
	}
	if currency == "" {
		currency = "USD"
	}

	return models.PricingBreakdown{
		BasePrice:  basePrice,
		Discount:   discount,
		FinalPrice: basePrice - discount,
		Currency:   currency,
	}
}
