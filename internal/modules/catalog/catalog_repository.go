package catalog

import (
	"context"
	"errors"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepositoryInterface interface {
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	FindRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, page, limit int) ([]*models.Restaurant, int, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	FindMenuItem(ctx context.Context, menuItemID int) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	ListMenu(ctx context.Context, restaurantID int) ([]*models.MenuItem, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO restaurants (owner_id, name, address, is_open)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		restaurant.OwnerID, restaurant.Name, restaurant.Address, restaurant.IsOpen,
	).Scan(&restaurant.ID, &restaurant.CreatedAt, &restaurant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateRestaurant: %w", err)
	}
	return nil
}

func (r *Repository) FindRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, name, address, is_open, created_at, updated_at
		FROM restaurants
		WHERE id = $1`, restaurantID,
	).Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address, &rest.IsOpen, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindRestaurant: %w", err)
	}
	return &rest, nil
}

func (r *Repository) ListRestaurants(ctx context.Context, page, limit int) ([]*models.Restaurant, int, error) {
	offset := (page - 1) * limit
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, name, address, is_open, created_at, updated_at
		FROM restaurants
		ORDER BY name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListRestaurants.Query: %w", err)
	}
	defer rows.Close()

	var restaurants []*models.Restaurant
	for rows.Next() {
		var rest models.Restaurant
		if err := rows.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address, &rest.IsOpen, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("repository.ListRestaurants.Scan: %w", err)
		}
		restaurants = append(restaurants, &rest)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListRestaurants.Count: %w", err)
	}
	return restaurants, total, nil
}

func (r *Repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, name, description, price, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		item.RestaurantID, item.Name, item.Description, item.Price, item.IsAvailable,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateMenuItem: %w", err)
	}
	return nil
}

func (r *Repository) FindMenuItem(ctx context.Context, menuItemID int) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.QueryRow(ctx, `
		SELECT id, restaurant_id, name, description, price, is_available, created_at, updated_at
		FROM menu_items
		WHERE id = $1`, menuItemID,
	).Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Description, &item.Price, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindMenuItem: %w", err)
	}
	return &item, nil
}

func (r *Repository) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, is_available = $4, updated_at = NOW()
		WHERE id = $5`,
		item.Name, item.Description, item.Price, item.IsAvailable, item.ID)
	if err != nil {
		return fmt.Errorf("repository.UpdateMenuItem: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) ListMenu(ctx context.Context, restaurantID int) ([]*models.MenuItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, restaurant_id, name, description, price, is_available, created_at, updated_at
		FROM menu_items
		WHERE restaurant_id = $1
		ORDER BY name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListMenu.Query: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Description, &item.Price, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListMenu.Scan: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
