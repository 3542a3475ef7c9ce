package delivery

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"plateful-backend/internal/events"
	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

const courierID = "courier-1"

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeOrderStore struct {
	orders map[int]*models.Order
}

func (s *fakeOrderStore) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (s *fakeOrderStore) FindByID(ctx context.Context, orderID int) (*models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *fakeOrderStore) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int) (*models.Order, error) {
	return s.FindByID(ctx, orderID)
}

func (s *fakeOrderStore) AssignDeliveryTx(ctx context.Context, tx pgx.Tx, orderID int, deliveryPersonID string) error {
	o, ok := s.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.DeliveryPersonID = sql.NullString{String: deliveryPersonID, Valid: true}
	o.Status = models.StatusAssigned
	return nil
}

func (s *fakeOrderStore) UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID int, status models.OrderStatus) error {
	o, ok := s.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *fakeOrderStore) ListByDeliveryPerson(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	var out []*models.Order
	for _, o := range s.orders {
		if o.DeliveryPersonID.Valid && o.DeliveryPersonID.String == deliveryPersonID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

type fakeUsers struct {
	users map[string]*models.User
}

func (u *fakeUsers) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	if user, ok := u.users[userID]; ok {
		return user, nil
	}
	return nil, models.ErrNotFound
}

func newTestService(store *fakeOrderStore) *Service {
	users := &fakeUsers{users: map[string]*models.User{
		courierID:   {ID: courierID, Role: models.RoleDeliveryPerson, ApprovalStatus: models.ApprovalApproved},
		"courier-2": {ID: "courier-2", Role: models.RoleDeliveryPerson, ApprovalStatus: models.ApprovalPending},
		"customer-1": {ID: "customer-1", Role: models.RoleCustomer, ApprovalStatus: models.ApprovalApproved},
	}}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(store, users, (*events.KafkaProducer)(nil), logger)
}

func TestAssign(t *testing.T) {
	ctx := context.Background()

	pendingOrder := func() map[int]*models.Order {
		return map[int]*models.Order{1: {ID: 1, CustomerID: "customer-1", Status: models.StatusPending}}
	}

	t.Run("admin assigns an approved courier", func(t *testing.T) {
		store := &fakeOrderStore{orders: pendingOrder()}
		svc := newTestService(store)

		order, err := svc.Assign(ctx, 1, courierID, models.RoleAdmin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Status != models.StatusAssigned {
			t.Errorf("status = %s, want ASSIGNED", order.Status)
		}
		if !order.DeliveryPersonID.Valid || order.DeliveryPersonID.String != courierID {
			t.Errorf("delivery person = %+v, want %s", order.DeliveryPersonID, courierID)
		}
	})

	t.Run("preparing order is assignable", func(t *testing.T) {
		store := &fakeOrderStore{orders: map[int]*models.Order{
			1: {ID: 1, Status: models.StatusPreparing},
		}}
		svc := newTestService(store)

		if _, err := svc.Assign(ctx, 1, courierID, models.RoleAdmin); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-admin cannot assign", func(t *testing.T) {
		svc := newTestService(&fakeOrderStore{orders: pendingOrder()})
		_, err := svc.Assign(ctx, 1, courierID, models.RoleRestaurantOwner)
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unapproved courier is rejected", func(t *testing.T) {
		svc := newTestService(&fakeOrderStore{orders: pendingOrder()})
		_, err := svc.Assign(ctx, 1, "courier-2", models.RoleAdmin)
		if !errors.Is(err, models.ErrInvalidDeliveryPerson) {
			t.Fatalf("expected ErrInvalidDeliveryPerson, got %v", err)
		}
	})

	t.Run("non-courier candidate is rejected", func(t *testing.T) {
		svc := newTestService(&fakeOrderStore{orders: pendingOrder()})
		_, err := svc.Assign(ctx, 1, "customer-1", models.RoleAdmin)
		if !errors.Is(err, models.ErrInvalidDeliveryPerson) {
			t.Fatalf("expected ErrInvalidDeliveryPerson, got %v", err)
		}
	})

	t.Run("unknown candidate is rejected", func(t *testing.T) {
		svc := newTestService(&fakeOrderStore{orders: pendingOrder()})
		_, err := svc.Assign(ctx, 1, "nobody", models.RoleAdmin)
		if !errors.Is(err, models.ErrInvalidDeliveryPerson) {
			t.Fatalf("expected ErrInvalidDeliveryPerson, got %v", err)
		}
	})

	t.Run("order out for delivery is not assignable", func(t *testing.T) {
		store := &fakeOrderStore{orders: map[int]*models.Order{
			1: {ID: 1, Status: models.StatusOutForDelivery, DeliveryPersonID: sql.NullString{String: courierID, Valid: true}},
		}}
		svc := newTestService(store)

		_, err := svc.Assign(ctx, 1, courierID, models.RoleAdmin)
		if !errors.Is(err, models.ErrOrderNotAssignable) {
			t.Fatalf("expected ErrOrderNotAssignable, got %v", err)
		}
	})
}

func TestHandoff(t *testing.T) {
	ctx := context.Background()

	assignedOrder := func() map[int]*models.Order {
		return map[int]*models.Order{
			1: {ID: 1, Status: models.StatusAssigned, DeliveryPersonID: sql.NullString{String: courierID, Valid: true}},
		}
	}

	t.Run("pickup then delivery", func(t *testing.T) {
		store := &fakeOrderStore{orders: assignedOrder()}
		svc := newTestService(store)

		order, err := svc.MarkOutForDelivery(ctx, 1, courierID)
		if err != nil {
			t.Fatalf("pickup failed: %v", err)
		}
		if order.Status != models.StatusOutForDelivery {
			t.Errorf("status = %s, want OUT_FOR_DELIVERY", order.Status)
		}

		order, err = svc.MarkDelivered(ctx, 1, courierID)
		if err != nil {
			t.Fatalf("delivery failed: %v", err)
		}
		if order.Status != models.StatusDelivered {
			t.Errorf("status = %s, want DELIVERED", order.Status)
		}
	})

	t.Run("wrong courier cannot pick up", func(t *testing.T) {
		svc := newTestService(&fakeOrderStore{orders: assignedOrder()})
		_, err := svc.MarkOutForDelivery(ctx, 1, "courier-2")
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("cannot deliver before pickup", func(t *testing.T) {
		svc := newTestService(&fakeOrderStore{orders: assignedOrder()})
		_, err := svc.MarkDelivered(ctx, 1, courierID)
		if !errors.Is(err, models.ErrInvalidStateTransition) {
			t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
		}
	})

	t.Run("cannot deliver twice", func(t *testing.T) {
		store := &fakeOrderStore{orders: map[int]*models.Order{
			1: {ID: 1, Status: models.StatusDelivered, DeliveryPersonID: sql.NullString{String: courierID, Valid: true}},
		}}
		svc := newTestService(store)

		_, err := svc.MarkDelivered(ctx, 1, courierID)
		if !errors.Is(err, models.ErrInvalidStateTransition) {
			t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
		}
	})
}
