package catalog

import (
	"context"

	"plateful-backend/internal/models"
)

// ServiceInterface defines catalog operations. Menu writes require the actor
// to own the restaurant; reads are public.
type ServiceInterface interface {
	CreateRestaurant(ctx context.Context, ownerID string, role models.Role, req models.CreateRestaurantRequest) (*models.Restaurant, error)
	GetRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, page, limit int) ([]*models.Restaurant, int, error)
	AddMenuItem(ctx context.Context, actorID string, role models.Role, restaurantID int, req models.CreateMenuItemRequest) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, actorID string, role models.Role, menuItemID int, req models.UpdateMenuItemRequest) (*models.MenuItem, error)
	ListMenu(ctx context.Context, restaurantID int) ([]*models.MenuItem, error)
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRestaurant(ctx context.Context, ownerID string, role models.Role, req models.CreateRestaurantRequest) (*models.Restaurant, error) {
	if role != models.RoleRestaurantOwner && role != models.RoleAdmin {
		return nil, models.ErrUnauthorized
	}
	restaurant := &models.Restaurant{
		OwnerID: ownerID,
		Name:    req.Name,
		Address: req.Address,
		IsOpen:  true,
	}
	if err := s.repo.CreateRestaurant(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (s *Service) GetRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error) {
	return s.repo.FindRestaurant(ctx, restaurantID)
}

func (s *Service) ListRestaurants(ctx context.Context, page, limit int) ([]*models.Restaurant, int, error) {
	return s.repo.ListRestaurants(ctx, page, limit)
}

// authorizeMenuWrite checks that the actor owns the restaurant (admins pass).
func (s *Service) authorizeMenuWrite(ctx context.Context, actorID string, role models.Role, restaurantID int) error {
	if role == models.RoleAdmin {
		return nil
	}
	if role != models.RoleRestaurantOwner {
		return models.ErrUnauthorized
	}
	restaurant, err := s.repo.FindRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	if restaurant.OwnerID != actorID {
		return models.ErrUnauthorized
	}
	return nil
}

func (s *Service) AddMenuItem(ctx context.Context, actorID string, role models.Role, restaurantID int, req models.CreateMenuItemRequest) (*models.MenuItem, error) {
	if err := s.authorizeMenuWrite(ctx, actorID, role, restaurantID); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		IsAvailable:  true,
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, actorID string, role models.Role, menuItemID int, req models.UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.repo.FindMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMenuWrite(ctx, actorID, role, item.RestaurantID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) ListMenu(ctx context.Context, restaurantID int) ([]*models.MenuItem, error) {
	if _, err := s.repo.FindRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	return s.repo.ListMenu(ctx, restaurantID)
}
