package orders

import (
	"math"

	"plateful-backend/internal/models"
)

// OrderTotals is the result of pricing an order's line items before any
// coupon discount.
type OrderTotals struct {
	Subtotal    float64
	TaxAmount   float64
	DeliveryFee float64
}

// GrandTotal is the amount the customer pays before discounts.
func (t OrderTotals) GrandTotal() float64 {
	return roundToCents(t.Subtotal + t.TaxAmount + t.DeliveryFee)
}

// roundToCents rounds half-up to two decimal places. All stored money values
// pass through here.
func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeOrderTotals prices the line items: subtotal as the sum of captured
// unit prices times quantities, tax from the configured rate, and the flat
// delivery fee. A non-positive subtotal is rejected.
func ComputeOrderTotals(items []models.OrderItem, taxRate, deliveryFee float64) (OrderTotals, error) {
	var subtotal float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	subtotal = roundToCents(subtotal)

	if subtotal <= 0 {
		return OrderTotals{}, models.ErrInvalidOrderAmount
	}

	return OrderTotals{
		Subtotal:    subtotal,
		TaxAmount:   roundToCents(subtotal * taxRate),
		DeliveryFee: deliveryFee,
	}, nil
}

// ComputeDiscount returns the discount a coupon yields against a subtotal.
// PERCENTAGE coupons are rounded half-up at the division step and capped at
// MaxDiscount; FIXED coupons are capped at MaxDiscount when one is set. The
// result never exceeds the subtotal.
func ComputeDiscount(subtotal float64, coupon *models.Coupon) float64 {
	var discount float64
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = roundToCents(subtotal * coupon.DiscountValue / 100)
		if coupon.MaxDiscount.Valid && discount > coupon.MaxDiscount.Float64 {
			discount = coupon.MaxDiscount.Float64
		}
	case models.DiscountFixed:
		discount = coupon.DiscountValue
		if coupon.MaxDiscount.Valid && discount > coupon.MaxDiscount.Float64 {
			discount = coupon.MaxDiscount.Float64
		}
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
