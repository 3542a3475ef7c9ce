package delivery

import (
	"context"
	"errors"
	"fmt"

	"plateful-backend/internal/events"
	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// OrderStore is the slice of the order repository the coordinator needs. The
// orders module's repository satisfies it; assignment and handoff work on the
// same orders table under the same row locks.
type OrderStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	FindByID(ctx context.Context, orderID int) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int) (*models.Order, error)
	AssignDeliveryTx(ctx context.Context, tx pgx.Tx, orderID int, deliveryPersonID string) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID int, status models.OrderStatus) error
	ListByDeliveryPerson(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error)
}

// UserLookup resolves the assignment candidate's role and approval state.
type UserLookup interface {
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
}

// ServiceInterface defines delivery assignment and handoff operations.
type ServiceInterface interface {
	Assign(ctx context.Context, orderID int, deliveryPersonID string, actorRole models.Role) (*models.Order, error)
	MarkOutForDelivery(ctx context.Context, orderID int, actorID string) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID int, actorID string) (*models.Order, error)
	ListMyAssignments(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error)
}

// Service coordinates delivery assignment. Assignment and the delivery-side
// sub-transitions all lock the order row first, so two concurrent assigns for
// one order serialize and the loser sees the status already flipped.
type Service struct {
	orders    OrderStore
	users     UserLookup
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewService(orders OrderStore, users UserLookup, publisher events.Publisher, logger *logrus.Logger) *Service {
	return &Service{orders: orders, users: users, publisher: publisher, logger: logger}
}

// Assign gives the order to a delivery person and moves it to ASSIGNED.
// Admin-only; the order must be PENDING or PREPARING and the candidate must
// be an approved delivery person.
func (s *Service) Assign(ctx context.Context, orderID int, deliveryPersonID string, actorRole models.Role) (*models.Order, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrUnauthorized
	}

	candidate, err := s.users.FindUserByID(ctx, deliveryPersonID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidDeliveryPerson
		}
		return nil, err
	}
	if candidate.Role != models.RoleDeliveryPerson || candidate.ApprovalStatus != models.ApprovalApproved {
		return nil, models.ErrInvalidDeliveryPerson
	}

	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Assign.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orders.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending && order.Status != models.StatusPreparing {
		return nil, models.ErrOrderNotAssignable
	}

	if err := s.orders.AssignDeliveryTx(ctx, tx, orderID, deliveryPersonID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.Assign.Commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":        orderID,
		"delivery_person": deliveryPersonID,
	}).Info("Delivery person assigned")

	if err := s.publisher.PublishOrderStatusChanged(events.OrderStatusChangedEvent{
		OrderID: orderID,
		From:    order.Status,
		To:      models.StatusAssigned,
		ActorID: deliveryPersonID,
	}); err != nil {
		s.logger.WithError(err).Warn("order.status_changed event not published")
	}

	return s.orders.FindByID(ctx, orderID)
}

// MarkOutForDelivery advances ASSIGNED → OUT_FOR_DELIVERY; only the assigned
// delivery person may call it.
func (s *Service) MarkOutForDelivery(ctx context.Context, orderID int, actorID string) (*models.Order, error) {
	return s.advance(ctx, orderID, actorID, models.StatusAssigned, models.StatusOutForDelivery)
}

// MarkDelivered advances OUT_FOR_DELIVERY → DELIVERED; only the assigned
// delivery person may call it. DELIVERED is terminal.
func (s *Service) MarkDelivered(ctx context.Context, orderID int, actorID string) (*models.Order, error) {
	return s.advance(ctx, orderID, actorID, models.StatusOutForDelivery, models.StatusDelivered)
}

// advance performs one delivery-side sub-transition under a row lock. The
// assignee check runs before the status check, matching the transition table.
func (s *Service) advance(ctx context.Context, orderID int, actorID string, from, to models.OrderStatus) (*models.Order, error) {
	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.advance.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orders.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.DeliveryPersonID.Valid || order.DeliveryPersonID.String != actorID {
		return nil, models.ErrUnauthorized
	}
	if order.Status != from {
		return nil, models.ErrInvalidStateTransition
	}

	if err := s.orders.UpdateStatusTx(ctx, tx, orderID, to); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.advance.Commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
		"actor":    actorID,
	}).Info("Delivery status advanced")

	if err := s.publisher.PublishOrderStatusChanged(events.OrderStatusChangedEvent{
		OrderID: orderID,
		From:    from,
		To:      to,
		ActorID: actorID,
	}); err != nil {
		s.logger.WithError(err).Warn("order.status_changed event not published")
	}

	return s.orders.FindByID(ctx, orderID)
}

func (s *Service) ListMyAssignments(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	return s.orders.ListByDeliveryPerson(ctx, deliveryPersonID, page, limit)
}
