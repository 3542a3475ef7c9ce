package coupons

import (
	"net/http"
	"strconv"

	"plateful-backend/internal/models"
	"plateful-backend/pkg/utils"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateCoupon(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateCouponRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	coupon, err := h.svc.CreateCoupon(c.Request().Context(), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, coupon)
}

func (h *Handler) GetCoupon(c echo.Context) error {
	couponID, err := strconv.Atoi(c.Param("couponId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid coupon ID")
	}

	coupon, err := h.svc.GetCoupon(c.Request().Context(), couponID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, coupon)
}

func (h *Handler) UpdateCoupon(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	couponID, err := strconv.Atoi(c.Param("couponId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid coupon ID")
	}

	var req models.UpdateCouponRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	coupon, err := h.svc.UpdateCoupon(c.Request().Context(), userID, role, couponID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, coupon)
}

func (h *Handler) DeleteCoupon(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	couponID, err := strconv.Atoi(c.Param("couponId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid coupon ID")
	}

	if err := h.svc.DeleteCoupon(c.Request().Context(), userID, role, couponID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListCoupons(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	coupons, total, err := h.svc.ListCoupons(c.Request().Context(), page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list coupons")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"coupons": coupons, "total": total})
}

func (h *Handler) ListRestaurantCoupons(c echo.Context) error {
	restaurantID, err := strconv.Atoi(c.Param("restaurantId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid restaurant ID")
	}

	coupons, err := h.svc.ListRestaurantCoupons(c.Request().Context(), restaurantID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, coupons)
}
