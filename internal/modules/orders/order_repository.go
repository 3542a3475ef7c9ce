package orders

import (
	"context"
	"errors"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, customer_id, restaurant_id, address_id, delivery_person_id,
	subtotal, tax_amount, delivery_fee, discount_amount, total_amount, coupon_id,
	status, special_instructions, payment_id, created_at, updated_at`

// RepositoryInterface defines the persistence contract for orders. Methods
// taking a pgx.Tx participate in a caller-owned transaction; the ForUpdate
// variants lock the order row so concurrent mutations of the same order
// serialize at the database.
type RepositoryInterface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, order *models.Order) error
	FindByID(ctx context.Context, orderID int) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int) (*models.Order, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID int, status models.OrderStatus) error
	SetCouponTx(ctx context.Context, tx pgx.Tx, orderID, couponID int, discount, total float64) error
	ClearCouponTx(ctx context.Context, tx pgx.Tx, orderID int, total float64) error
	AssignDeliveryTx(ctx context.Context, tx pgx.Tx, orderID int, deliveryPersonID string) error
	SetPaymentID(ctx context.Context, orderID, paymentID int) error
	CountCouponUsageByUser(ctx context.Context, tx pgx.Tx, userID string, couponID int) (int, error)
	ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListByRestaurant(ctx context.Context, restaurantID, page, limit int) ([]*models.Order, int, error)
	ListByDeliveryPerson(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error)
	ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// CreateTx inserts the order and its line items inside the given transaction,
// filling in the generated id and timestamps.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, restaurant_id, address_id, subtotal, tax_amount,
			delivery_fee, discount_amount, total_amount, coupon_id, status, special_instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		order.CustomerID, order.RestaurantID, order.AddressID,
		order.Subtotal, order.TaxAmount, order.DeliveryFee,
		order.DiscountAmount, order.TotalAmount, order.CouponID,
		order.Status, order.SpecialInstructions,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateTx: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.OrderID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("repository.CreateTx items: %w", err)
		}
	}

	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.RestaurantID,
		&order.AddressID,
		&order.DeliveryPersonID,
		&order.Subtotal,
		&order.TaxAmount,
		&order.DeliveryFee,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.CouponID,
		&order.Status,
		&order.SpecialInstructions,
		&order.PaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

func (r *Repository) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, order.ID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// FindByID retrieves a single order with its line items.
func (r *Repository) FindByID(ctx context.Context, orderID int) (*models.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return order, nil
}

// FindByIDForUpdate locks and returns the order row. Line items are immutable
// after placement and are not loaded here.
func (r *Repository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int) (*models.Order, error) {
	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByIDForUpdate: %w", err)
	}
	return order, nil
}

// UpdateStatusTx sets the order's status and refreshes updated_at.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID int, status models.OrderStatus) error {
	cmd, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("repository.UpdateStatusTx: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetCouponTx attaches a coupon to the order together with the recomputed
// discount and total.
func (r *Repository) SetCouponTx(ctx context.Context, tx pgx.Tx, orderID, couponID int, discount, total float64) error {
	cmd, err := tx.Exec(ctx, `
		UPDATE orders
		SET coupon_id = $1, discount_amount = $2, total_amount = $3, updated_at = NOW()
		WHERE id = $4`, couponID, discount, total, orderID)
	if err != nil {
		return fmt.Errorf("repository.SetCouponTx: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearCouponTx detaches the coupon and restores the given total.
func (r *Repository) ClearCouponTx(ctx context.Context, tx pgx.Tx, orderID int, total float64) error {
	cmd, err := tx.Exec(ctx, `
		UPDATE orders
		SET coupon_id = NULL, discount_amount = 0, total_amount = $1, updated_at = NOW()
		WHERE id = $2`, total, orderID)
	if err != nil {
		return fmt.Errorf("repository.ClearCouponTx: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AssignDeliveryTx records the delivery person and flips status to ASSIGNED.
func (r *Repository) AssignDeliveryTx(ctx context.Context, tx pgx.Tx, orderID int, deliveryPersonID string) error {
	cmd, err := tx.Exec(ctx, `
		UPDATE orders
		SET delivery_person_id = $1, status = $2, updated_at = NOW()
		WHERE id = $3`, deliveryPersonID, models.StatusAssigned, orderID)
	if err != nil {
		return fmt.Errorf("repository.AssignDeliveryTx: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetPaymentID links the created payment record back onto the order.
func (r *Repository) SetPaymentID(ctx context.Context, orderID, paymentID int) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE orders
		SET payment_id = $1, updated_at = NOW()
		WHERE id = $2`, paymentID, orderID)
	if err != nil {
		return fmt.Errorf("repository.SetPaymentID: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountCouponUsageByUser counts the user's past orders that redeemed this
// coupon. Run inside the apply-coupon transaction so the per-user limit check
// is race-free.
func (r *Repository) CountCouponUsageByUser(ctx context.Context, tx pgx.Tx, userID string, couponID int) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE customer_id = $1 AND coupon_id = $2`, userID, couponID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository.CountCouponUsageByUser: %w", err)
	}
	return count, nil
}

func (r *Repository) list(ctx context.Context, where string, countArgs []interface{}, args []interface{}) ([]*models.Order, int, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ` + where + ` ORDER BY created_at DESC LIMIT $` +
		fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.list.Query: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.list.Scan: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.list.Rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.list.Count: %w", err)
	}
	return orders, total, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	return r.list(ctx, "WHERE customer_id = $1",
		[]interface{}{customerID}, []interface{}{customerID, limit, offset})
}

func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	return r.list(ctx, "WHERE restaurant_id = $1",
		[]interface{}{restaurantID}, []interface{}{restaurantID, limit, offset})
}

func (r *Repository) ListByDeliveryPerson(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	return r.list(ctx, "WHERE delivery_person_id = $1",
		[]interface{}{deliveryPersonID}, []interface{}{deliveryPersonID, limit, offset})
}

func (r *Repository) ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	return r.list(ctx, "", nil, []interface{}{limit, offset})
}
