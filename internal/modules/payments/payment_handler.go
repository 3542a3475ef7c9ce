package payments

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

// ProcessPayment handles POST /orders/:orderId/payment requests.
func (h *Handler) ProcessPayment(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Param("orderId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req models.ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	payment, err := h.svc.ProcessPayment(c.Request().Context(), orderID, userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, payment)
}

func (h *Handler) GetPayment(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	paymentID, err := strconv.Atoi(c.Param("paymentId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID")
	}

	payment, err := h.svc.GetPayment(c.Request().Context(), paymentID, userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, payment)
}

// UpdatePayment handles PATCH /payments/:paymentId requests. Which fields the
// actor may change is decided by the authorization gate in the service.
func (h *Handler) UpdatePayment(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	paymentID, err := strconv.Atoi(c.Param("paymentId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID")
	}

	var req models.UpdatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	payment, err := h.svc.UpdatePayment(c.Request().Context(), paymentID, userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, payment)
}
