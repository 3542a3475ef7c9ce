package catalog

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

func restaurantIDParam(c echo.Context) (int, error) {
	restaurantID, err := strconv.Atoi(c.Param("restaurantId"))
	if err != nil {
		return 0, utils.RespondWithError(c, http.StatusBadRequest, "Invalid restaurant ID")
	}
	return restaurantID, nil
}

func (h *Handler) CreateRestaurant(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateRestaurantRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	restaurant, err := h.svc.CreateRestaurant(c.Request().Context(), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, restaurant)
}

func (h *Handler) GetRestaurant(c echo.Context) error {
	restaurantID, err := restaurantIDParam(c)
	if err != nil {
		return err
	}

	restaurant, err := h.svc.GetRestaurant(c.Request().Context(), restaurantID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, restaurant)
}

func (h *Handler) ListRestaurants(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	restaurants, total, err := h.svc.ListRestaurants(c.Request().Context(), page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list restaurants")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"restaurants": restaurants, "total": total})
}

func (h *Handler) AddMenuItem(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	restaurantID, err := restaurantIDParam(c)
	if err != nil {
		return err
	}

	var req models.CreateMenuItemRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	item, err := h.svc.AddMenuItem(c.Request().Context(), userID, role, restaurantID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	menuItemID, err := strconv.Atoi(c.Param("itemId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid menu item ID")
	}

	var req models.UpdateMenuItemRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	item, err := h.svc.UpdateMenuItem(c.Request().Context(), userID, role, menuItemID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, item)
}

func (h *Handler) ListMenu(c echo.Context) error {
	restaurantID, err := restaurantIDParam(c)
	if err != nil {
		return err
	}

	items, err := h.svc.ListMenu(c.Request().Context(), restaurantID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, items)
}
