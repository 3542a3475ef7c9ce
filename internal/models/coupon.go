package models

import (
	"database/sql"
	"time"
)

// DiscountType selects how a coupon's value is applied to an order subtotal.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Coupon is a discount rule, either global (RestaurantID null) or scoped to
// one restaurant. MaxDiscount caps percentage coupons; a FIXED coupon without
// a cap is bounded only by its own value and the order subtotal.
type Coupon struct {
	ID            int             `json:"id"`
	Code          string          `json:"code"`
	RestaurantID  sql.NullInt64   `json:"restaurant_id,omitempty"`
	CreatedBy     string          `json:"created_by"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue float64         `json:"discount_value"`
	MaxDiscount   sql.NullFloat64 `json:"max_discount,omitempty"`
	MinOrderValue float64         `json:"min_order_value"`
	UsageLimit    int             `json:"usage_limit"`
	PerUserLimit  int             `json:"per_user_limit"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidTo       time.Time       `json:"valid_to"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsGlobal reports whether the coupon applies platform-wide.
func (c *Coupon) IsGlobal() bool {
	return !c.RestaurantID.Valid
}

type CreateCouponRequest struct {
	Code          string       `json:"code" validate:"required,min=3,max=32,alphanum"`
	RestaurantID  *int         `json:"restaurant_id,omitempty" validate:"omitempty,gt=0"`
	DiscountType  DiscountType `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue float64      `json:"discount_value" validate:"required,gt=0"`
	MaxDiscount   *float64     `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	MinOrderValue float64      `json:"min_order_value" validate:"gte=0"`
	UsageLimit    int          `json:"usage_limit" validate:"gte=0"`
	PerUserLimit  int          `json:"per_user_limit" validate:"required,gt=0"`
	ValidFrom     time.Time    `json:"valid_from" validate:"required"`
	ValidTo       time.Time    `json:"valid_to" validate:"required,gtfield=ValidFrom"`
}

type UpdateCouponRequest struct {
	DiscountValue *float64   `json:"discount_value,omitempty" validate:"omitempty,gt=0"`
	MaxDiscount   *float64   `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	MinOrderValue *float64   `json:"min_order_value,omitempty" validate:"omitempty,gte=0"`
	PerUserLimit  *int       `json:"per_user_limit,omitempty" validate:"omitempty,gt=0"`
	ValidTo       *time.Time `json:"valid_to,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
}
