package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a write collides with existing state,
	// e.g. a duplicate email at signup or a second payment for an order.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidInput is returned for malformed or out-of-range input that
	// survived request validation, e.g. a menu item from another restaurant.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidOrderAmount is returned when line-item pricing produces a
	// non-positive subtotal.
	ErrInvalidOrderAmount = errors.New("order amount must be greater than zero")

	// ErrUnauthorized is returned when the actor's role or ownership does not
	// permit the attempted action (including order status transitions).
	ErrUnauthorized = errors.New("not authorized to perform this action")

	// ErrInvalidStateTransition is returned when the order's current status
	// does not permit the requested transition.
	ErrInvalidStateTransition = errors.New("order status does not permit this transition")

	// Coupon eligibility failures.
	ErrCouponInactive      = errors.New("this coupon is not active")
	ErrCouponExpired       = errors.New("this coupon has expired")
	ErrCouponNotApplicable = errors.New("this coupon cannot be used at this restaurant")
	ErrBelowMinimumOrder   = errors.New("order subtotal is below the coupon's minimum order value")
	ErrUsageLimitExceeded  = errors.New("coupon usage limit reached for this user")

	// ErrCouponAlreadyApplied is returned when an order already carries a
	// coupon; it must be removed before another can be applied.
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied to this order")

	// ErrNoCouponApplied is returned when removal is requested for an order
	// that carries no coupon.
	ErrNoCouponApplied = errors.New("no coupon is applied to this order")

	// Coupon creation failures.
	ErrDuplicateCouponCode       = errors.New("a coupon with this code already exists")
	ErrDuplicateActiveCouponType = errors.New("an active coupon of this discount type already exists for the restaurant")

	// Delivery assignment failures.
	ErrOrderNotAssignable    = errors.New("order is not in an assignable state")
	ErrInvalidDeliveryPerson = errors.New("user is not an approved delivery person")

	// Payment update failures.
	ErrUnauthorizedPaymentUpdate = errors.New("delivery persons may only update cash-on-delivery payments")
	ErrFieldNotPermitted         = errors.New("one or more payment fields may not be updated by this actor")

	// ErrDownstreamFailure is returned when a side effect after a successful
	// payment capture failed and the payment was compensated to FAILED.
	ErrDownstreamFailure = errors.New("payment post-processing failed")
)
