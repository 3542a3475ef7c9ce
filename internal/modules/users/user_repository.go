package users

import (
	"context"
	"errors"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, approval_status,
	auth_provider, auth_provider_id, is_active, created_at, updated_at`

type RepositoryInterface interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SaveActivationToken(ctx context.Context, userID, token string) error
	FindUserByActivationToken(ctx context.Context, token string) (*models.User, error)
	ActivateUser(ctx context.Context, userID string) error

	CreateAddress(ctx context.Context, address *models.Address) error
	FindAddress(ctx context.Context, addressID int) (*models.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]*models.Address, error)
	UpdateAddress(ctx context.Context, address *models.Address) error
	DeleteAddress(ctx context.Context, addressID int, userID string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ApprovalStatus,
		&u.AuthProvider,
		&u.AuthProviderID,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, approval_status, auth_provider, auth_provider_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash, user.Role, user.ApprovalStatus,
		user.AuthProvider, user.AuthProviderID, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateUser: %w", err)
	}
	return nil
}

func (r *Repository) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindUserByID: %w", err)
	}
	return user, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindUserByEmail: %w", err)
	}
	return user, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, approval_status = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4`,
		user.Name, user.ApprovalStatus, user.IsActive, user.ID)
	if err != nil {
		return fmt.Errorf("repository.UpdateUser: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) SaveActivationToken(ctx context.Context, userID, token string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE users
		SET activation_token = $1, updated_at = NOW()
		WHERE id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("repository.SaveActivationToken: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) FindUserByActivationToken(ctx context.Context, token string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE activation_token = $1`, token)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindUserByActivationToken: %w", err)
	}
	return user, nil
}

func (r *Repository) ActivateUser(ctx context.Context, userID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_active = TRUE, activation_token = NULL, updated_at = NOW()
		WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("repository.ActivateUser: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateAddress(ctx context.Context, address *models.Address) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO addresses (user_id, label, street_address, city, postal_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		address.UserID, address.Label, address.StreetAddress, address.City,
		address.PostalCode, address.IsDefault,
	).Scan(&address.ID, &address.CreatedAt, &address.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateAddress: %w", err)
	}
	return nil
}

func (r *Repository) FindAddress(ctx context.Context, addressID int) (*models.Address, error) {
	var a models.Address
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, label, street_address, city, postal_code, is_default, created_at, updated_at
		FROM addresses
		WHERE id = $1`, addressID,
	).Scan(&a.ID, &a.UserID, &a.Label, &a.StreetAddress, &a.City, &a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindAddress: %w", err)
	}
	return &a, nil
}

func (r *Repository) ListAddresses(ctx context.Context, userID string) ([]*models.Address, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, label, street_address, city, postal_code, is_default, created_at, updated_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAddresses.Query: %w", err)
	}
	defer rows.Close()

	var addresses []*models.Address
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.StreetAddress, &a.City, &a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListAddresses.Scan: %w", err)
		}
		addresses = append(addresses, &a)
	}
	return addresses, rows.Err()
}

func (r *Repository) UpdateAddress(ctx context.Context, address *models.Address) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE addresses
		SET label = $1, street_address = $2, city = $3, postal_code = $4, is_default = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7`,
		address.Label, address.StreetAddress, address.City, address.PostalCode,
		address.IsDefault, address.ID, address.UserID)
	if err != nil {
		return fmt.Errorf("repository.UpdateAddress: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteAddress(ctx context.Context, addressID int, userID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("repository.DeleteAddress: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
