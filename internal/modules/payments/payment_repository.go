package payments

import (
	"context"
	"errors"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, order_id, user_id, amount, method, status, transaction_id,
	invoice_ref, created_at, updated_at`

type RepositoryInterface interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, paymentID int) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID int) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	UpdateStatus(ctx context.Context, paymentID int, status models.PaymentStatus) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.UserID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.TransactionID,
		&p.InvoiceRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return &p, nil
}

// Create inserts the payment. The unique constraint on order_id enforces the
// one-payment-per-order invariant even under concurrent calls; violations
// surface as ErrConflict.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, user_id, amount, method, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		payment.OrderID, payment.UserID, payment.Amount, payment.Method,
		payment.Status, payment.TransactionID,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.CreatePayment: %w", err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, paymentID int) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPaymentByID: %w", err)
	}
	return payment, nil
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID int) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPaymentByOrderID: %w", err)
	}
	return payment, nil
}

// Update persists the mutable payment fields.
func (r *Repository) Update(ctx context.Context, payment *models.Payment) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE payments
		SET amount = $1, method = $2, status = $3, transaction_id = $4,
			invoice_ref = $5, updated_at = NOW()
		WHERE id = $6`,
		payment.Amount, payment.Method, payment.Status, payment.TransactionID,
		payment.InvoiceRef, payment.ID)
	if err != nil {
		return fmt.Errorf("repository.UpdatePayment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, paymentID int, status models.PaymentStatus) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2`, status, paymentID)
	if err != nil {
		return fmt.Errorf("repository.UpdatePaymentStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
