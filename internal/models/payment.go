package models

import (
	"database/sql"
	"time"
)

type PaymentMethod string

const (
	MethodCreditCard     PaymentMethod = "CREDIT_CARD"
	MethodDebitCard      PaymentMethod = "DEBIT_CARD"
	MethodWallet         PaymentMethod = "WALLET"
	MethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment is the single payment record for an order (1:1).
type Payment struct {
	ID            int            `json:"id"`
	OrderID       int            `json:"order_id"`
	UserID        string         `json:"user_id"`
	Amount        float64        `json:"amount"`
	Method        PaymentMethod  `json:"method"`
	Status        PaymentStatus  `json:"status"`
	TransactionID string         `json:"transaction_id"`
	InvoiceRef    sql.NullString `json:"invoice_ref,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type ProcessPaymentRequest struct {
	Amount float64       `json:"amount" validate:"required,gt=0"`
	Method PaymentMethod `json:"method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD WALLET CASH_ON_DELIVERY"`
}

// UpdatePaymentRequest carries the fields an actor wants to change on a
// payment. Which fields are permitted depends on the actor's role and the
// payment method; see the payments authorization gate.
type UpdatePaymentRequest struct {
	Status        *PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING SUCCESS FAILED REFUNDED"`
	Amount        *float64       `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Method        *PaymentMethod `json:"method,omitempty" validate:"omitempty,oneof=CREDIT_CARD DEBIT_CARD WALLET CASH_ON_DELIVERY"`
	TransactionID *string        `json:"transaction_id,omitempty"`
}
