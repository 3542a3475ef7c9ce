package orders

import (
	"net/http"
	"strconv"

	"plateful-backend/internal/models"
	"plateful-backend/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func orderIDParam(c echo.Context) (int, error) {
	orderID, err := strconv.Atoi(c.Param("orderId"))
	if err != nil {
		return 0, utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}
	return orderID, nil
}

func (h *Handler) PlaceOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.PlaceOrder(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, order)
}

func (h *Handler) GetOrder(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.svc.GetOrder(c.Request().Context(), orderID, userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) ListMyOrders(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve orders")
	}

	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.UpdateOrderStatus(c.Request().Context(), orderID, req.Status, userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) ApplyCoupon(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.ApplyCouponRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.ApplyCoupon(c.Request().Context(), orderID, userID, req.CouponCode)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) RemoveCoupon(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.svc.RemoveCoupon(c.Request().Context(), orderID, userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) ListRestaurantOrders(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	restaurantID, err := strconv.Atoi(c.Param("restaurantId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid restaurant ID")
	}

	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListRestaurantOrders(c.Request().Context(), restaurantID, userID, role, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func (h *Handler) ListAllOrders(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListAllOrders(c.Request().Context(), page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list all orders")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}
