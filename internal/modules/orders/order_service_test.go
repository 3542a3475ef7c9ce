package orders

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"plateful-backend/internal/events"
	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// fakeTx satisfies pgx.Tx where the service only needs Commit/Rollback; every
// other method panics through the embedded nil interface.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeOrderRepo struct {
	orders    map[int]*models.Order
	nextID    int
	priorUses int
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int]*models.Order{}, nextID: 1}
}

func (r *fakeOrderRepo) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (r *fakeOrderRepo) CreateTx(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	order.ID = r.nextID
	r.nextID++
	order.CreatedAt = time.Now()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, orderID int) (*models.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int) (*models.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *fakeOrderRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID int, status models.OrderStatus) error {
	o, ok := r.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) SetCouponTx(ctx context.Context, tx pgx.Tx, orderID, couponID int, discount, total float64) error {
	o, ok := r.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.CouponID = sql.NullInt64{Int64: int64(couponID), Valid: true}
	o.DiscountAmount = discount
	o.TotalAmount = total
	return nil
}

func (r *fakeOrderRepo) ClearCouponTx(ctx context.Context, tx pgx.Tx, orderID int, total float64) error {
	o, ok := r.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.CouponID = sql.NullInt64{}
	o.DiscountAmount = 0
	o.TotalAmount = total
	return nil
}

func (r *fakeOrderRepo) AssignDeliveryTx(ctx context.Context, tx pgx.Tx, orderID int, deliveryPersonID string) error {
	o, ok := r.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.DeliveryPersonID = sql.NullString{String: deliveryPersonID, Valid: true}
	o.Status = models.StatusAssigned
	return nil
}

func (r *fakeOrderRepo) SetPaymentID(ctx context.Context, orderID, paymentID int) error {
	o, ok := r.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.PaymentID = sql.NullInt64{Int64: int64(paymentID), Valid: true}
	return nil
}

func (r *fakeOrderRepo) CountCouponUsageByUser(ctx context.Context, tx pgx.Tx, userID string, couponID int) (int, error) {
	return r.priorUses, nil
}

func (r *fakeOrderRepo) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	var out []*models.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) ListByRestaurant(ctx context.Context, restaurantID, page, limit int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) ListByDeliveryPerson(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

// racingAssignRepo commits a delivery assignment the moment the row lock is
// taken, as if another transaction won the lock first.
type racingAssignRepo struct {
	*fakeOrderRepo
	courierID string
}

func (r *racingAssignRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int) (*models.Order, error) {
	if o, ok := r.orders[orderID]; ok && r.courierID != "" {
		o.Status = models.StatusAssigned
		o.DeliveryPersonID = sql.NullString{String: r.courierID, Valid: true}
		r.courierID = ""
	}
	return r.fakeOrderRepo.FindByIDForUpdate(ctx, tx, orderID)
}

type fakeCatalog struct {
	restaurants map[int]*models.Restaurant
	menuItems   map[int]*models.MenuItem
}

func (c *fakeCatalog) FindRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error) {
	if r, ok := c.restaurants[restaurantID]; ok {
		return r, nil
	}
	return nil, models.ErrNotFound
}

func (c *fakeCatalog) FindMenuItem(ctx context.Context, menuItemID int) (*models.MenuItem, error) {
	if m, ok := c.menuItems[menuItemID]; ok {
		return m, nil
	}
	return nil, models.ErrNotFound
}

type fakeAddresses struct {
	addresses map[int]*models.Address
}

func (a *fakeAddresses) FindAddress(ctx context.Context, addressID int) (*models.Address, error) {
	if addr, ok := a.addresses[addressID]; ok {
		return addr, nil
	}
	return nil, models.ErrNotFound
}

type fakeCoupons struct {
	coupons map[string]*models.Coupon
}

func (c *fakeCoupons) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if cp, ok := c.coupons[code]; ok {
		return cp, nil
	}
	return nil, models.ErrNotFound
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(repo RepositoryInterface, coupons *fakeCoupons) *Service {
	catalog := &fakeCatalog{
		restaurants: map[int]*models.Restaurant{
			10: {ID: 10, OwnerID: testOwnerID, Name: "Thai Garden", IsOpen: true},
			11: {ID: 11, OwnerID: "owner-2", Name: "Closed Kitchen", IsOpen: false},
		},
		menuItems: map[int]*models.MenuItem{
			100: {ID: 100, RestaurantID: 10, Name: "Pad Thai", Price: 75.0, IsAvailable: true},
			101: {ID: 101, RestaurantID: 10, Name: "Spring Rolls", Price: 50.0, IsAvailable: true},
			102: {ID: 102, RestaurantID: 10, Name: "Mango Sticky Rice", Price: 60.0, IsAvailable: false},
			200: {ID: 200, RestaurantID: 11, Name: "Other Dish", Price: 40.0, IsAvailable: true},
		},
	}
	addresses := &fakeAddresses{
		addresses: map[int]*models.Address{
			1: {ID: 1, UserID: "customer-1"},
			2: {ID: 2, UserID: "customer-2"},
		},
	}
	if coupons == nil {
		coupons = &fakeCoupons{coupons: map[string]*models.Coupon{}}
	}
	return NewService(repo, coupons, catalog, addresses, (*events.KafkaProducer)(nil), testLogger(), 0.05, 30.0)
}

func activeCoupon() *models.Coupon {
	return &models.Coupon{
		ID:            5,
		Code:          "save20",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 20,
		MaxDiscount:   sql.NullFloat64{Float64: 30, Valid: true},
		MinOrderValue: 100,
		PerUserLimit:  1,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
		IsActive:      true,
	}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	req := models.PlaceOrderRequest{
		RestaurantID: 10,
		AddressID:    1,
		Items: []models.OrderItemRequest{
			{MenuItemID: 100, Quantity: 2},
			{MenuItemID: 101, Quantity: 1},
		},
	}

	t.Run("prices items and confirms the order", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, nil)

		order, err := svc.PlaceOrder(ctx, "customer-1", req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Status != models.StatusConfirmed {
			t.Errorf("status = %s, want CONFIRMED", order.Status)
		}
		if !almostEqual(order.Subtotal, 200.0) {
			t.Errorf("subtotal = %v, want 200", order.Subtotal)
		}
		// 200 + 10 tax + 30 fee
		if !almostEqual(order.TotalAmount, 240.0) {
			t.Errorf("total = %v, want 240", order.TotalAmount)
		}
		if len(order.Items) != 2 {
			t.Errorf("items = %d, want 2", len(order.Items))
		}
		if order.Items[0].UnitPrice != 75.0 {
			t.Errorf("captured price = %v, want 75", order.Items[0].UnitPrice)
		}
	})

	t.Run("applies a coupon at placement", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, &fakeCoupons{coupons: map[string]*models.Coupon{"save20": activeCoupon()}})

		withCoupon := req
		withCoupon.CouponCode = "save20"
		order, err := svc.PlaceOrder(ctx, "customer-1", withCoupon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 20% of 200 is 40, capped to 30.
		if !almostEqual(order.DiscountAmount, 30.0) {
			t.Errorf("discount = %v, want 30", order.DiscountAmount)
		}
		if !almostEqual(order.TotalAmount, 210.0) {
			t.Errorf("total = %v, want 210", order.TotalAmount)
		}
		if !order.CouponID.Valid || order.CouponID.Int64 != 5 {
			t.Errorf("coupon id = %+v, want 5", order.CouponID)
		}
	})

	t.Run("rejected coupon aborts placement", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.priorUses = 1
		svc := newTestService(repo, &fakeCoupons{coupons: map[string]*models.Coupon{"save20": activeCoupon()}})

		withCoupon := req
		withCoupon.CouponCode = "save20"
		_, err := svc.PlaceOrder(ctx, "customer-1", withCoupon)
		if !errors.Is(err, models.ErrUsageLimitExceeded) {
			t.Fatalf("expected ErrUsageLimitExceeded, got %v", err)
		}
		if len(repo.orders) != 0 {
			t.Errorf("expected no order created, found %d", len(repo.orders))
		}
	})

	t.Run("rejects someone else's address", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), nil)
		other := req
		other.AddressID = 2
		_, err := svc.PlaceOrder(ctx, "customer-1", other)
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects a closed restaurant", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), nil)
		closed := req
		closed.RestaurantID = 11
		closed.Items = []models.OrderItemRequest{{MenuItemID: 200, Quantity: 1}}
		_, err := svc.PlaceOrder(ctx, "customer-1", closed)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects an item from another restaurant", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), nil)
		mixed := req
		mixed.Items = []models.OrderItemRequest{{MenuItemID: 200, Quantity: 1}}
		_, err := svc.PlaceOrder(ctx, "customer-1", mixed)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects an unavailable item", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), nil)
		unavailable := req
		unavailable.Items = []models.OrderItemRequest{{MenuItemID: 102, Quantity: 1}}
		_, err := svc.PlaceOrder(ctx, "customer-1", unavailable)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestGetOrderVisibility(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOrderRepo()
	repo.orders[1] = &models.Order{
		ID:               1,
		CustomerID:       "customer-1",
		RestaurantID:     10,
		DeliveryPersonID: sql.NullString{String: testCourierID, Valid: true},
		Status:           models.StatusAssigned,
	}
	svc := newTestService(repo, nil)

	cases := []struct {
		name    string
		actorID string
		role    models.Role
		wantErr error
	}{
		{"customer sees own order", "customer-1", models.RoleCustomer, nil},
		{"other customer gets not found", "customer-2", models.RoleCustomer, models.ErrNotFound},
		{"restaurant owner sees it", testOwnerID, models.RoleRestaurantOwner, nil},
		{"other owner gets not found", "owner-2", models.RoleRestaurantOwner, models.ErrNotFound},
		{"assigned courier sees it", testCourierID, models.RoleDeliveryPerson, nil},
		{"other courier gets not found", "courier-2", models.RoleDeliveryPerson, models.ErrNotFound},
		{"admin sees everything", "admin-1", models.RoleAdmin, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetOrder(ctx, 1, tc.actorID, tc.role)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("owner moves order to preparing", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = &models.Order{ID: 1, CustomerID: "customer-1", RestaurantID: 10, Status: models.StatusConfirmed}
		svc := newTestService(repo, nil)

		order, err := svc.UpdateOrderStatus(ctx, 1, models.StatusPreparing, testOwnerID, models.RoleRestaurantOwner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Status != models.StatusPreparing {
			t.Errorf("status = %s, want PREPARING", order.Status)
		}
	})

	t.Run("assignment is not reachable through status update", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = &models.Order{ID: 1, CustomerID: "customer-1", RestaurantID: 10, Status: models.StatusPending}
		svc := newTestService(repo, nil)

		_, err := svc.UpdateOrderStatus(ctx, 1, models.StatusAssigned, "admin-1", models.RoleAdmin)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), nil)
		_, err := svc.UpdateOrderStatus(ctx, 1, models.OrderStatus("CANCELLED"), "admin-1", models.RoleAdmin)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("transition is validated against the locked row", func(t *testing.T) {
		inner := newFakeOrderRepo()
		inner.orders[1] = &models.Order{ID: 1, CustomerID: "customer-1", RestaurantID: 10, Status: models.StatusPreparing}
		repo := &racingAssignRepo{fakeOrderRepo: inner, courierID: testCourierID}
		svc := newTestService(repo, nil)

		// An admin assignment commits just before the owner's transition takes
		// the row lock. The owner's READY_FOR_PICKUP must lose, not clobber it.
		_, err := svc.UpdateOrderStatus(ctx, 1, models.StatusReadyForPickup, testOwnerID, models.RoleRestaurantOwner)
		if !errors.Is(err, models.ErrInvalidStateTransition) {
			t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
		}

		stored := inner.orders[1]
		if stored.Status != models.StatusAssigned {
			t.Errorf("status = %s, want ASSIGNED", stored.Status)
		}
		if !stored.DeliveryPersonID.Valid || stored.DeliveryPersonID.String != testCourierID {
			t.Error("delivery person assignment was lost")
		}
	})
}

func TestApplyCoupon(t *testing.T) {
	ctx := context.Background()

	baseOrder := func() *models.Order {
		return &models.Order{
			ID:           1,
			CustomerID:   "customer-1",
			RestaurantID: 10,
			Subtotal:     200,
			TaxAmount:    10,
			DeliveryFee:  30,
			TotalAmount:  240,
			Status:       models.StatusConfirmed,
		}
	}

	t.Run("discount lands on the order", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = baseOrder()
		svc := newTestService(repo, &fakeCoupons{coupons: map[string]*models.Coupon{"save20": activeCoupon()}})

		order, err := svc.ApplyCoupon(ctx, 1, "customer-1", "save20")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(order.DiscountAmount, 30.0) {
			t.Errorf("discount = %v, want 30", order.DiscountAmount)
		}
		if !almostEqual(order.TotalAmount, 210.0) {
			t.Errorf("total = %v, want 210", order.TotalAmount)
		}
	})

	t.Run("second coupon is rejected", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := baseOrder()
		o.CouponID = sql.NullInt64{Int64: 9, Valid: true}
		repo.orders[1] = o
		svc := newTestService(repo, &fakeCoupons{coupons: map[string]*models.Coupon{"save20": activeCoupon()}})

		_, err := svc.ApplyCoupon(ctx, 1, "customer-1", "save20")
		if !errors.Is(err, models.ErrCouponAlreadyApplied) {
			t.Fatalf("expected ErrCouponAlreadyApplied, got %v", err)
		}
	})

	t.Run("only the order's customer may apply", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = baseOrder()
		svc := newTestService(repo, &fakeCoupons{coupons: map[string]*models.Coupon{"save20": activeCoupon()}})

		_, err := svc.ApplyCoupon(ctx, 1, "customer-2", "save20")
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("delivered order is frozen", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := baseOrder()
		o.Status = models.StatusDelivered
		repo.orders[1] = o
		svc := newTestService(repo, &fakeCoupons{coupons: map[string]*models.Coupon{"save20": activeCoupon()}})

		_, err := svc.ApplyCoupon(ctx, 1, "customer-1", "save20")
		if !errors.Is(err, models.ErrInvalidStateTransition) {
			t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
		}
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = baseOrder()
		svc := newTestService(repo, nil)

		_, err := svc.ApplyCoupon(ctx, 1, "customer-1", "nope")
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRemoveCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the pre-discount total", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = &models.Order{
			ID:             1,
			CustomerID:     "customer-1",
			RestaurantID:   10,
			Subtotal:       200,
			TaxAmount:      10,
			DeliveryFee:    30,
			DiscountAmount: 30,
			TotalAmount:    210,
			CouponID:       sql.NullInt64{Int64: 5, Valid: true},
			Status:         models.StatusConfirmed,
		}
		svc := newTestService(repo, nil)

		order, err := svc.RemoveCoupon(ctx, 1, "customer-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.CouponID.Valid {
			t.Error("expected coupon cleared")
		}
		if !almostEqual(order.TotalAmount, 240.0) {
			t.Errorf("total = %v, want 240", order.TotalAmount)
		}
		if order.DiscountAmount != 0 {
			t.Errorf("discount = %v, want 0", order.DiscountAmount)
		}
	})

	t.Run("nothing to remove", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = &models.Order{ID: 1, CustomerID: "customer-1", Status: models.StatusConfirmed}
		svc := newTestService(repo, nil)

		_, err := svc.RemoveCoupon(ctx, 1, "customer-1")
		if !errors.Is(err, models.ErrNoCouponApplied) {
			t.Fatalf("expected ErrNoCouponApplied, got %v", err)
		}
	})
}
