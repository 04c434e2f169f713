package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
)

// Rejection reasons surfaced to the client when a code cannot be applied.
const (
	ReasonNotFound             = "PROMO_NOT_FOUND"
	ReasonInactive             = "PROMO_INACTIVE"
	ReasonNotStarted           = "PROMO_NOT_STARTED"
	ReasonExpired              = "PROMO_EXPIRED"
	ReasonUsageExceeded        = "PROMO_USAGE_EXCEEDED"
	ReasonMinOrderNotMet       = "PROMO_MIN_ORDER_NOT_MET"
	ReasonServiceNotApplicable = "PROMO_SERVICE_NOT_APPLICABLE"
)

var ErrUnsupportedDiscountType = errors.New("unsupported discount type")

// Validator validates promo codes and computes discount amounts. Validation
// never mutates usage counters; committing a redemption is the caller's job
// and happens exactly once per confirmed booking.
type Validator struct {
	logger *logger.Logger
}

func NewValidator(log *logger.Logger) *Validator {
	return &Validator{logger: log}
}

// ValidationResult represents the outcome of validating a promo code against
// an order amount.
type ValidationResult struct {
	IsValid        bool    // Whether the code is valid and applicable
	DiscountAmount float64 // Discount to be applied
	Reason         string  // Machine-readable reason code when invalid
	Message        string  // Human-readable reason when invalid
}

func invalid(reason, message string) *ValidationResult {
	return &ValidationResult{IsValid: false, Reason: reason, Message: message}
}

// NormalizeCode uppercases and trims a user-entered code. Stored codes are
// always uppercase, so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a promo code against an order amount and service type at a
// given instant, and computes the discount it would grant. A nil promo means
// the code was not found in storage.
func (v *Validator) Validate(promo *models.PromoCode, orderAmount float64, serviceType models.BookingType, now time.Time) (*ValidationResult, error) {
	if promo == nil {
		return invalid(ReasonNotFound, "Promo code not found"), nil
	}

	// Universal pre-condition checks, cheapest first
	if !promo.IsActive {
		return invalid(ReasonInactive, "Promo code is not active"), nil
	}

	if !promo.ValidFrom.IsZero() && now.Before(promo.ValidFrom) {
		return invalid(ReasonNotStarted, "Promo code is not yet active"), nil
	}
	if !promo.ValidUntil.IsZero() && now.After(promo.ValidUntil) {
		return invalid(ReasonExpired, "Promo code has expired"), nil
	}

	if promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit {
		return invalid(ReasonUsageExceeded, "Promo code usage limit has been reached"), nil
	}

	if !promo.AppliesTo(serviceType) {
		return invalid(ReasonServiceNotApplicable,
			fmt.Sprintf("Promo code is not applicable to %s bookings", serviceType)), nil
	}

	if promo.MinOrderValue > 0 && orderAmount < promo.MinOrderValue {
		return invalid(ReasonMinOrderNotMet,
			fmt.Sprintf("Order does not meet minimum value of %.2f", promo.MinOrderValue)), nil
	}

	// Compute the raw discount
	var discount float64
	switch promo.DiscountType {
	case models.DiscountTypePercentage:
		discount = orderAmount * promo.DiscountValue / 100
	case models.DiscountTypeFixed:
		discount = promo.DiscountValue
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDiscountType, promo.DiscountType)
	}

	// Apply the cap if one is set
	if promo.MaxDiscount > 0 && discount > promo.MaxDiscount {
		discount = promo.MaxDiscount
	}

	// A discount can never exceed the order amount
	if discount > orderAmount {
		discount = orderAmount
	}

	if v.logger != nil {
		v.logger.LogPromo("VALIDATE", fmt.Sprintf("code %s valid, discount %.2f on %.2f", promo.Code, discount, orderAmount))
	}

	return &ValidationResult{IsValid: true, DiscountAmount: discount}, nil
}
