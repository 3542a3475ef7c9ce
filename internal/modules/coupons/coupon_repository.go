package coupons

import (
	"context"
	"errors"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const couponColumns = `id, code, restaurant_id, created_by, discount_type, discount_value,
	max_discount, min_order_value, usage_limit, per_user_limit, valid_from, valid_to,
	is_active, created_at, updated_at`

// Unique constraints backing the creation-time rules: coupons_code_key on
// lower(code), and a partial unique index on (restaurant_id, discount_type)
// WHERE is_active. Violations surface as the matching sentinel error, so the
// rules hold even under concurrent creates.
const (
	constraintCode       = "coupons_code_key"
	constraintActiveType = "coupons_restaurant_active_type_key"
)

type RepositoryInterface interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, couponID int) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, couponID int) error
	List(ctx context.Context, page, limit int) ([]*models.Coupon, int, error)
	ListByRestaurant(ctx context.Context, restaurantID int) ([]*models.Coupon, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var c models.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.RestaurantID,
		&c.CreatedBy,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MaxDiscount,
		&c.MinOrderValue,
		&c.UsageLimit,
		&c.PerUserLimit,
		&c.ValidFrom,
		&c.ValidTo,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}
	return &c, nil
}

func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case constraintCode:
			return models.ErrDuplicateCouponCode
		case constraintActiveType:
			return models.ErrDuplicateActiveCouponType
		}
	}
	return err
}

// Create inserts a new coupon, filling in the generated id and timestamps.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO coupons (code, restaurant_id, created_by, discount_type, discount_value,
			max_discount, min_order_value, usage_limit, per_user_limit, valid_from, valid_to, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		coupon.Code, coupon.RestaurantID, coupon.CreatedBy, coupon.DiscountType,
		coupon.DiscountValue, coupon.MaxDiscount, coupon.MinOrderValue,
		coupon.UsageLimit, coupon.PerUserLimit, coupon.ValidFrom, coupon.ValidTo,
		coupon.IsActive,
	).Scan(&coupon.ID, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		if translated := translateUniqueViolation(err); translated != err {
			return translated
		}
		return fmt.Errorf("repository.CreateCoupon: %w", err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, couponID int) (*models.Coupon, error) {
	row := r.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, couponID)
	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindCouponByID: %w", err)
	}
	return coupon, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	row := r.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE lower(code) = lower($1)`, code)
	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindCouponByCode: %w", err)
	}
	return coupon, nil
}

// Update persists the mutable coupon fields.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE coupons
		SET discount_value = $1, max_discount = $2, min_order_value = $3,
			per_user_limit = $4, valid_to = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7`,
		coupon.DiscountValue, coupon.MaxDiscount, coupon.MinOrderValue,
		coupon.PerUserLimit, coupon.ValidTo, coupon.IsActive, coupon.ID)
	if err != nil {
		if translated := translateUniqueViolation(err); translated != err {
			return translated
		}
		return fmt.Errorf("repository.UpdateCoupon: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, couponID int) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, couponID)
	if err != nil {
		return fmt.Errorf("repository.DeleteCoupon: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]*models.Coupon, int, error) {
	offset := (page - 1) * limit
	rows, err := r.db.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListCoupons.Query: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListCoupons.Scan: %w", err)
		}
		coupons = append(coupons, coupon)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListCoupons.Count: %w", err)
	}
	return coupons, total, nil
}

func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID int) ([]*models.Coupon, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE restaurant_id = $1
		ORDER BY created_at DESC`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListCouponsByRestaurant.Query: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListCouponsByRestaurant.Scan: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rows.Err()
}
