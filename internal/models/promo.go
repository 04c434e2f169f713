package models

import (
	"time"

	"github.com/uptrace/bun"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type PromoCode struct {
	bun.BaseModel `bun:"table:promo_codes"`

	ID                 string       `bun:"id,pk" json:"id"`
	Code               string       `bun:"code,unique,notnull" json:"code"`
	Description        string       `bun:"description,nullzero" json:"description,omitempty"`
	DiscountType       DiscountType `bun:"discount_type,notnull" json:"discount_type"`
	DiscountValue      float64      `bun:"discount_value,notnull" json:"discount_value"`
	MaxDiscount        float64      `bun:"max_discount,nullzero" json:"max_discount,omitempty"`
	MinOrderValue      float64      `bun:"min_order_value,nullzero" json:"min_order_value,omitempty"`
	ValidFrom          time.Time    `bun:"valid_from,nullzero" json:"valid_from,omitempty"`
	ValidUntil         time.Time    `bun:"valid_until,nullzero" json:"valid_until,omitempty"`
	UsageLimit         int          `bun:"usage_limit,nullzero" json:"usage_limit,omitempty"`
	UsedCount          int          `bun:"used_count,notnull,default:0" json:"used_count"`
	IsActive           bool         `bun:"is_active,notnull" json:"is_active"`
	ApplicableServices []string     `bun:"applicable_services,type:jsonb,nullzero" json:"applicable_services,omitempty"`
	CreatedAt          time.Time    `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// AppliesTo reports whether the code can be redeemed against the given
// service type. An empty ApplicableServices list means all services.
func (p *PromoCode) AppliesTo(t BookingType) bool {
	if len(p.ApplicableServices) == 0 {
		return true
	}
	for _, s := range p.ApplicableServices {
		if s == string(t) {
			return true
		}
	}
	return false
}
