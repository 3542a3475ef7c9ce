package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"plateful-backend/internal/events"
	"plateful-backend/internal/models"
	"plateful-backend/internal/modules/coupons"

	"github.com/sirupsen/logrus"
)

// CatalogLookup is the slice of the catalog module order placement needs.
type CatalogLookup interface {
	FindRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error)
	FindMenuItem(ctx context.Context, menuItemID int) (*models.MenuItem, error)
}

// AddressLookup resolves a delivery address and its owner.
type AddressLookup interface {
	FindAddress(ctx context.Context, addressID int) (*models.Address, error)
}

// CouponLookup resolves coupons by code for placement and application.
type CouponLookup interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// ServiceInterface defines the order lifecycle operations.
type ServiceInterface interface {
	PlaceOrder(ctx context.Context, customerID string, req models.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int, actorID string, role models.Role) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int, target models.OrderStatus, actorID string, role models.Role) (*models.Order, error)
	ApplyCoupon(ctx context.Context, orderID int, actorID string, couponCode string) (*models.Order, error)
	RemoveCoupon(ctx context.Context, orderID int, actorID string) (*models.Order, error)
	ListMyOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListRestaurantOrders(ctx context.Context, restaurantID int, actorID string, role models.Role, page, limit int) ([]*models.Order, int, error)
	ListAllOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error)
}

// Service implements the order lifecycle: placement, status transitions and
// coupon side-mutations. Coupon apply/remove run under a row lock on the
// order so concurrent calls against the same order serialize.
type Service struct {
	repo        RepositoryInterface
	coupons     CouponLookup
	catalog     CatalogLookup
	addresses   AddressLookup
	publisher   events.Publisher
	logger      *logrus.Logger
	taxRate     float64
	deliveryFee float64
}

func NewService(
	repo RepositoryInterface,
	couponLookup CouponLookup,
	catalog CatalogLookup,
	addresses AddressLookup,
	publisher events.Publisher,
	logger *logrus.Logger,
	taxRate, deliveryFee float64,
) *Service {
	return &Service{
		repo:        repo,
		coupons:     couponLookup,
		catalog:     catalog,
		addresses:   addresses,
		publisher:   publisher,
		logger:      logger,
		taxRate:     taxRate,
		deliveryFee: deliveryFee,
	}
}

// PlaceOrder creates a new order atomically: the address and every menu item
// are validated, totals computed, and any provided coupon validated and
// applied before the order row is written. If the coupon is rejected, no
// order is created.
func (s *Service) PlaceOrder(ctx context.Context, customerID string, req models.PlaceOrderRequest) (*models.Order, error) {
	address, err := s.addresses.FindAddress(ctx, req.AddressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != customerID {
		return nil, models.ErrUnauthorized
	}

	restaurant, err := s.catalog.FindRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsOpen {
		return nil, fmt.Errorf("%w: restaurant is not accepting orders", models.ErrInvalidInput)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		menuItem, err := s.catalog.FindMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return nil, err
		}
		if menuItem.RestaurantID != req.RestaurantID {
			return nil, fmt.Errorf("%w: menu item %d does not belong to restaurant %d",
				models.ErrInvalidInput, line.MenuItemID, req.RestaurantID)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Errorf("%w: menu item %d is unavailable", models.ErrInvalidInput, line.MenuItemID)
		}
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   line.Quantity,
			UnitPrice:  menuItem.Price,
		})
	}

	totals, err := ComputeOrderTotals(items, s.taxRate, s.deliveryFee)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:          customerID,
		RestaurantID:        req.RestaurantID,
		AddressID:           req.AddressID,
		Items:               items,
		Subtotal:            totals.Subtotal,
		TaxAmount:           totals.TaxAmount,
		DeliveryFee:         totals.DeliveryFee,
		TotalAmount:         totals.GrandTotal(),
		Status:              models.StatusConfirmed,
		SpecialInstructions: req.SpecialInstructions,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceOrder.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if req.CouponCode != "" {
		coupon, err := s.coupons.FindByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		priorUses, err := s.repo.CountCouponUsageByUser(ctx, tx, customerID, coupon.ID)
		if err != nil {
			return nil, err
		}
		if err := coupons.ValidateForApplication(order, coupon, priorUses, time.Now()); err != nil {
			return nil, err
		}
		discount := ComputeDiscount(order.Subtotal, coupon)
		order.CouponID = sql.NullInt64{Int64: int64(coupon.ID), Valid: true}
		order.DiscountAmount = discount
		order.TotalAmount = roundToCents(order.TotalAmount - discount)
	}

	if err := s.repo.CreateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.PlaceOrder.Commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"customer_id": customerID,
		"total":       order.TotalAmount,
	}).Info("Order placed")

	if err := s.publisher.PublishOrderCreated(events.OrderCreatedEvent{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		TotalAmount:  order.TotalAmount,
		CouponCode:   req.CouponCode,
	}); err != nil {
		s.logger.WithError(err).Warn("order.created event not published")
	}

	return order, nil
}

// GetOrder returns the order if the actor is allowed to see it: the customer
// who placed it, the owner of its restaurant, its assigned delivery person,
// or an admin. Everyone else gets NotFound so order ids are not probeable.
func (s *Service) GetOrder(ctx context.Context, orderID int, actorID string, role models.Role) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
		return order, nil
	case models.RoleCustomer:
		if order.CustomerID == actorID {
			return order, nil
		}
	case models.RoleRestaurantOwner:
		restaurant, err := s.catalog.FindRestaurant(ctx, order.RestaurantID)
		if err == nil && restaurant.OwnerID == actorID {
			return order, nil
		}
	case models.RoleDeliveryPerson:
		if order.DeliveryPersonID.Valid && order.DeliveryPersonID.String == actorID {
			return order, nil
		}
	}
	return nil, models.ErrNotFound
}

// UpdateOrderStatus moves the order to the target status after the transition
// table authorizes the actor. Assignment is not reachable here: it carries a
// delivery person id and goes through the delivery coordinator. The order row
// is locked for the duration so the transition is validated against the row
// being written, not a read that a concurrent assignment may have outdated.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int, target models.OrderStatus, actorID string, role models.Role) (*models.Order, error) {
	if !target.IsValid() || target == models.StatusAssigned {
		return nil, models.ErrInvalidInput
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateOrderStatus.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	restaurant, err := s.catalog.FindRestaurant(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}

	actor := Actor{UserID: actorID, Role: role}
	if err := AuthorizeTransition(order, restaurant.OwnerID, target, actor); err != nil {
		return nil, err
	}

	from := order.Status
	if err := s.repo.UpdateStatusTx(ctx, tx, orderID, target); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.UpdateOrderStatus.Commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       target,
		"actor":    actorID,
	}).Info("Order status updated")

	if err := s.publisher.PublishOrderStatusChanged(events.OrderStatusChangedEvent{
		OrderID: orderID,
		From:    from,
		To:      target,
		ActorID: actorID,
	}); err != nil {
		s.logger.WithError(err).Warn("order.status_changed event not published")
	}

	return s.repo.FindByID(ctx, orderID)
}

// ApplyCoupon attaches a coupon to an existing order. The order row is locked
// for the duration so two concurrent applications cannot both pass the
// already-applied check and double-discount the order.
func (s *Service) ApplyCoupon(ctx context.Context, orderID int, actorID string, couponCode string) (*models.Order, error) {
	coupon, err := s.coupons.FindByCode(ctx, couponCode)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ApplyCoupon.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actorID {
		return nil, models.ErrUnauthorized
	}
	if !CanMutateCoupon(order) {
		return nil, models.ErrInvalidStateTransition
	}

	priorUses, err := s.repo.CountCouponUsageByUser(ctx, tx, actorID, coupon.ID)
	if err != nil {
		return nil, err
	}
	if err := coupons.ValidateForApplication(order, coupon, priorUses, time.Now()); err != nil {
		return nil, err
	}

	discount := ComputeDiscount(order.Subtotal, coupon)
	newTotal := roundToCents(order.Subtotal + order.TaxAmount + order.DeliveryFee - discount)

	if err := s.repo.SetCouponTx(ctx, tx, orderID, coupon.ID, discount, newTotal); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.ApplyCoupon.Commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"coupon":   coupon.Code,
		"discount": discount,
	}).Info("Coupon applied")

	return s.repo.FindByID(ctx, orderID)
}

// RemoveCoupon detaches the order's coupon, restoring the pre-discount total
// exactly and zeroing the discount.
func (s *Service) RemoveCoupon(ctx context.Context, orderID int, actorID string) (*models.Order, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RemoveCoupon.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actorID {
		return nil, models.ErrUnauthorized
	}
	if !CanMutateCoupon(order) {
		return nil, models.ErrInvalidStateTransition
	}
	if !order.CouponID.Valid {
		return nil, models.ErrNoCouponApplied
	}

	restoredTotal := roundToCents(order.TotalAmount + order.DiscountAmount)
	if err := s.repo.ClearCouponTx(ctx, tx, orderID, restoredTotal); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.RemoveCoupon.Commit: %w", err)
	}

	return s.repo.FindByID(ctx, orderID)
}

func (s *Service) ListMyOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	return s.repo.ListByCustomer(ctx, customerID, page, limit)
}

// ListRestaurantOrders lists the orders of one restaurant; only the owner of
// that restaurant or an admin may call it.
func (s *Service) ListRestaurantOrders(ctx context.Context, restaurantID int, actorID string, role models.Role, page, limit int) ([]*models.Order, int, error) {
	if role != models.RoleAdmin {
		restaurant, err := s.catalog.FindRestaurant(ctx, restaurantID)
		if err != nil {
			return nil, 0, err
		}
		if role != models.RoleRestaurantOwner || restaurant.OwnerID != actorID {
			return nil, 0, models.ErrUnauthorized
		}
	}
	return s.repo.ListByRestaurant(ctx, restaurantID, page, limit)
}

func (s *Service) ListAllOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	return s.repo.ListAll(ctx, page, limit)
}
