package coupons

import (
	"time"

	"plateful-backend/internal/models"
)

// ValidateForApplication runs the eligibility checks for applying a coupon to
// an order, short-circuiting on the first failure. priorUses is the count of
// the requesting user's past orders that redeemed this coupon; the caller
// obtains it inside the same transaction that will attach the coupon, so two
// concurrent applications cannot both pass.
//
// Check order: active, validity window, restaurant scope, minimum order
// value, per-user usage, no coupon already on the order.
func ValidateForApplication(order *models.Order, coupon *models.Coupon, priorUses int, now time.Time) error {
	if !coupon.IsActive {
		return models.ErrCouponInactive
	}

	// Validity window is inclusive on both ends.
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo) {
		return models.ErrCouponExpired
	}

	if !coupon.IsGlobal() && coupon.RestaurantID.Int64 != int64(order.RestaurantID) {
		return models.ErrCouponNotApplicable
	}

	if order.Subtotal < coupon.MinOrderValue {
		return models.ErrBelowMinimumOrder
	}

	if coupon.PerUserLimit > 0 && priorUses >= coupon.PerUserLimit {
		return models.ErrUsageLimitExceeded
	}

	if order.CouponID.Valid {
		return models.ErrCouponAlreadyApplied
	}

	return nil
}
