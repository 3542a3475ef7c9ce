package models

import (
	"database/sql"
	"time"
)

// OrderStatus represents every state of an order's lifecycle.
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusAssigned       OrderStatus = "ASSIGNED"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
)

// IsTerminal reports whether no further transition can leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered
}

// IsValid reports whether s is one of the known lifecycle statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReadyForPickup,
		StatusAssigned, StatusOutForDelivery, StatusDelivered:
		return true
	}
	return false
}

// Order represents one customer purchase. Orders are historical records and
// are never deleted.
type Order struct {
	ID                  int            `json:"id"`
	CustomerID          string         `json:"customer_id"`
	RestaurantID        int            `json:"restaurant_id"`
	AddressID           int            `json:"address_id"`
	DeliveryPersonID    sql.NullString `json:"delivery_person_id,omitempty"`
	Items               []OrderItem    `json:"items"`
	Subtotal            float64        `json:"subtotal"`
	TaxAmount           float64        `json:"tax_amount"`
	DeliveryFee         float64        `json:"delivery_fee"`
	DiscountAmount      float64        `json:"discount_amount"`
	TotalAmount         float64        `json:"total_amount"`
	CouponID            sql.NullInt64  `json:"coupon_id,omitempty"`
	Status              OrderStatus    `json:"status"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	PaymentID           sql.NullInt64  `json:"payment_id,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// OrderItem is one ordered line with the unit price captured at placement.
type OrderItem struct {
	ID         int     `json:"id"`
	OrderID    int     `json:"order_id"`
	MenuItemID int     `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// PlaceOrderRequest represents the data needed to place a new order.
type PlaceOrderRequest struct {
	RestaurantID        int                `json:"restaurant_id" validate:"required,gt=0"`
	AddressID           int                `json:"address_id" validate:"required,gt=0"`
	Items               []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode          string             `json:"coupon_code,omitempty"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
}

type OrderItemRequest struct {
	MenuItemID int `json:"menu_item_id" validate:"required,gt=0"`
	Quantity   int `json:"quantity" validate:"required,gt=0"`
}

// UpdateOrderStatusRequest carries the target status for a lifecycle transition.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// ApplyCouponRequest carries the coupon code to apply to an existing order.
type ApplyCouponRequest struct {
	CouponCode string `json:"coupon_code" validate:"required"`
}

// AssignDeliveryRequest carries the delivery person chosen by an admin.
type AssignDeliveryRequest struct {
	DeliveryPersonID string `json:"delivery_person_id" validate:"required,uuid4"`
}
