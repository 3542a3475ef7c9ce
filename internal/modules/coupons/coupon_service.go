package coupons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// RestaurantLookup is the slice of the catalog module the coupon service
// needs: resolving a restaurant to check ownership.
type RestaurantLookup interface {
	FindRestaurant(ctx context.Context, restaurantID int) (*models.Restaurant, error)
}

// ServiceInterface defines coupon management operations. Reads are open to
// any caller; writes are restricted to the creating authority class: admins
// for global coupons, the owning restaurant's owner for scoped ones.
type ServiceInterface interface {
	CreateCoupon(ctx context.Context, actorID string, role models.Role, req models.CreateCouponRequest) (*models.Coupon, error)
	GetCoupon(ctx context.Context, couponID int) (*models.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, actorID string, role models.Role, couponID int, req models.UpdateCouponRequest) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, actorID string, role models.Role, couponID int) error
	ListCoupons(ctx context.Context, page, limit int) ([]*models.Coupon, int, error)
	ListRestaurantCoupons(ctx context.Context, restaurantID int) ([]*models.Coupon, error)
}

type Service struct {
	repo        RepositoryInterface
	restaurants RestaurantLookup
	logger      *logrus.Logger
}

func NewService(repo RepositoryInterface, restaurants RestaurantLookup, logger *logrus.Logger) *Service {
	return &Service{repo: repo, restaurants: restaurants, logger: logger}
}

// authorizeWrite checks that the actor belongs to the authority class that
// created the coupon: admins manage global coupons, restaurant owners manage
// coupons scoped to a restaurant they own.
func (s *Service) authorizeWrite(ctx context.Context, actorID string, role models.Role, coupon *models.Coupon) error {
	if coupon.IsGlobal() {
		if role != models.RoleAdmin {
			return models.ErrUnauthorized
		}
		return nil
	}

	if role == models.RoleAdmin {
		return nil
	}
	if role != models.RoleRestaurantOwner {
		return models.ErrUnauthorized
	}
	restaurant, err := s.restaurants.FindRestaurant(ctx, int(coupon.RestaurantID.Int64))
	if err != nil {
		return err
	}
	if restaurant.OwnerID != actorID {
		return models.ErrUnauthorized
	}
	return nil
}

// CreateCoupon creates a global (admin) or restaurant-scoped (owner) coupon.
// The duplicate-code and duplicate-active-type rules are checked up front for
// a friendly error, and enforced again by unique constraints at insert time
// so concurrent creates cannot slip past the check.
func (s *Service) CreateCoupon(ctx context.Context, actorID string, role models.Role, req models.CreateCouponRequest) (*models.Coupon, error) {
	coupon := &models.Coupon{
		Code:          req.Code,
		CreatedBy:     actorID,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		UsageLimit:    req.UsageLimit,
		PerUserLimit:  req.PerUserLimit,
		ValidFrom:     req.ValidFrom,
		ValidTo:       req.ValidTo,
		IsActive:      true,
	}
	if req.RestaurantID != nil {
		coupon.RestaurantID = sql.NullInt64{Int64: int64(*req.RestaurantID), Valid: true}
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = sql.NullFloat64{Float64: *req.MaxDiscount, Valid: true}
	}

	if req.DiscountType == models.DiscountPercentage && req.DiscountValue > 100 {
		return nil, models.ErrInvalidInput
	}

	if err := s.authorizeWrite(ctx, actorID, role, coupon); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, models.ErrDuplicateCouponCode
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.CreateCoupon: %w", err)
	}

	if req.RestaurantID != nil {
		existing, err := s.repo.ListByRestaurant(ctx, *req.RestaurantID)
		if err != nil {
			return nil, fmt.Errorf("service.CreateCoupon: %w", err)
		}
		for _, c := range existing {
			if c.IsActive && c.DiscountType == req.DiscountType {
				return nil, models.ErrDuplicateActiveCouponType
			}
		}
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
		"global":    coupon.IsGlobal(),
	}).Info("Coupon created")

	return coupon, nil
}

func (s *Service) GetCoupon(ctx context.Context, couponID int) (*models.Coupon, error) {
	return s.repo.FindByID(ctx, couponID)
}

func (s *Service) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return s.repo.FindByCode(ctx, code)
}

func (s *Service) UpdateCoupon(ctx context.Context, actorID string, role models.Role, couponID int, req models.UpdateCouponRequest) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, couponID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actorID, role, coupon); err != nil {
		return nil, err
	}

	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = sql.NullFloat64{Float64: *req.MaxDiscount, Valid: true}
	}
	if req.MinOrderValue != nil {
		coupon.MinOrderValue = *req.MinOrderValue
	}
	if req.PerUserLimit != nil {
		coupon.PerUserLimit = *req.PerUserLimit
	}
	if req.ValidTo != nil {
		coupon.ValidTo = *req.ValidTo
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if coupon.DiscountType == models.DiscountPercentage && coupon.DiscountValue > 100 {
		return nil, models.ErrInvalidInput
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *Service) DeleteCoupon(ctx context.Context, actorID string, role models.Role, couponID int) error {
	coupon, err := s.repo.FindByID(ctx, couponID)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, actorID, role, coupon); err != nil {
		return err
	}
	return s.repo.Delete(ctx, couponID)
}

func (s *Service) ListCoupons(ctx context.Context, page, limit int) ([]*models.Coupon, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *Service) ListRestaurantCoupons(ctx context.Context, restaurantID int) ([]*models.Coupon, error) {
	return s.repo.ListByRestaurant(ctx, restaurantID)
}
