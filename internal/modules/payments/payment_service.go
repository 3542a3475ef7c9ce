package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"plateful-backend/internal/events"
	"plateful-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderLookup is the slice of the orders module the payment service needs.
type OrderLookup interface {
	FindByID(ctx context.Context, orderID int) (*models.Order, error)
	SetPaymentID(ctx context.Context, orderID, paymentID int) error
}

// UserLookup resolves the paying user's email for the receipt.
type UserLookup interface {
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
}

// ReceiptSender delivers the order receipt after a successful capture.
type ReceiptSender interface {
	SendOrderReceipt(ctx context.Context, to string, order *models.Order, payment *models.Payment) error
}

type ServiceInterface interface {
	ProcessPayment(ctx context.Context, orderID int, actorID string, req models.ProcessPaymentRequest) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID int, actorID string, role models.Role) (*models.Payment, error)
	UpdatePayment(ctx context.Context, paymentID int, actorID string, role models.Role, req models.UpdatePaymentRequest) (*models.Payment, error)
}

type Service struct {
	repo      RepositoryInterface
	orders    OrderLookup
	users     UserLookup
	receipts  ReceiptSender
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewService(
	repo RepositoryInterface,
	orders OrderLookup,
	users UserLookup,
	receipts ReceiptSender,
	publisher events.Publisher,
	logger *logrus.Logger,
) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		users:     users,
		receipts:  receipts,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessPayment captures the payment for an order. The record is written
// optimistically with status SUCCESS; if invoice generation or receipt
// delivery then fails, the status is compensated to FAILED before the error
// surfaces.
func (s *Service) ProcessPayment(ctx context.Context, orderID int, actorID string, req models.ProcessPaymentRequest) (*models.Payment, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actorID {
		return nil, models.ErrUnauthorized
	}
	if math.Abs(req.Amount-order.TotalAmount) > 0.005 {
		return nil, fmt.Errorf("%w: amount does not match order total", models.ErrInvalidInput)
	}

	if _, err := s.repo.FindByOrderID(ctx, orderID); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:       orderID,
		UserID:        actorID,
		Amount:        order.TotalAmount,
		Method:        req.Method,
		Status:        models.PaymentSuccess,
		TransactionID: "TXN-" + uuid.New().String(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	// Downstream side effects; any failure here flips the payment to FAILED.
	if err := s.finalize(ctx, order, payment); err != nil {
		if updErr := s.repo.UpdateStatus(ctx, payment.ID, models.PaymentFailed); updErr != nil {
			s.logger.WithError(updErr).WithField("payment_id", payment.ID).
				Error("Failed to compensate payment status after downstream failure")
		}
		payment.Status = models.PaymentFailed
		return nil, fmt.Errorf("%w: %v", models.ErrDownstreamFailure, err)
	}

	if err := s.orders.SetPaymentID(ctx, orderID, payment.ID); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("Could not link payment to order")
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":     payment.ID,
		"order_id":       orderID,
		"amount":         payment.Amount,
		"method":         payment.Method,
		"transaction_id": payment.TransactionID,
	}).Info("Payment processed")

	if err := s.publisher.PublishPaymentProcessed(events.PaymentProcessedEvent{
		OrderID:   orderID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Method:    payment.Method,
		Status:    payment.Status,
	}); err != nil {
		s.logger.WithError(err).Warn("payment.processed event not published")
	}

	return payment, nil
}

// finalize generates the invoice reference and sends the receipt email.
func (s *Service) finalize(ctx context.Context, order *models.Order, payment *models.Payment) error {
	invoiceRef := "INV-" + strings.ToUpper(uuid.New().String()[:8])
	payment.InvoiceRef = sql.NullString{String: invoiceRef, Valid: true}
	if err := s.repo.Update(ctx, payment); err != nil {
		return fmt.Errorf("invoice generation: %w", err)
	}

	user, err := s.users.FindUserByID(ctx, payment.UserID)
	if err != nil {
		return fmt.Errorf("receipt recipient lookup: %w", err)
	}
	if err := s.receipts.SendOrderReceipt(ctx, user.Email, order, payment); err != nil {
		return fmt.Errorf("receipt delivery: %w", err)
	}
	return nil
}

// GetPayment returns the payment if the actor owns it or is an admin.
func (s *Service) GetPayment(ctx context.Context, paymentID int, actorID string, role models.Role) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && payment.UserID != actorID {
		return nil, models.ErrNotFound
	}
	return payment, nil
}

// UpdatePayment applies the requested field changes after the authorization
// gate clears them for this actor.
func (s *Service) UpdatePayment(ctx context.Context, paymentID int, actorID string, role models.Role, req models.UpdatePaymentRequest) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeUpdate(payment, req, role); err != nil {
		return nil, err
	}

	if req.Status != nil {
		payment.Status = *req.Status
	}
	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.Method != nil {
		payment.Method = *req.Method
	}
	if req.TransactionID != nil {
		payment.TransactionID = *req.TransactionID
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"actor":      actorID,
		"role":       role,
		"status":     payment.Status,
	}).Info("Payment updated")

	return payment, nil
}
