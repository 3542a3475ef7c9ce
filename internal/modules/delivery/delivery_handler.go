package delivery

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

func orderIDParam(c echo.Context) (int, error) {
	orderID, err := strconv.Atoi(c.Param("orderId"))
	if err != nil {
		return 0, utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}
	return orderID, nil
}

// Assign handles POST /admin/orders/:orderId/assign requests.
func (h *Handler) Assign(c echo.Context) error {
	_, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req models.AssignDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.Assign(c.Request().Context(), orderID, req.DeliveryPersonID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) MarkOutForDelivery(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.svc.MarkOutForDelivery(c.Request().Context(), orderID, userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) MarkDelivered(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.svc.MarkDelivered(c.Request().Context(), orderID, userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

func (h *Handler) ListMyAssignments(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListMyAssignments(c.Request().Context(), userID, page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list assignments")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}
