package utils

import (
	"errors"
	"net/http"
	"strconv"

	"plateful-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON payload with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes a JSON error body with the given status code.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// ExtractUserInfo pulls the authenticated user's id and role out of the
// context values set by the JWT middleware.
func ExtractUserInfo(c echo.Context) (string, models.Role, error) {
	userID, ok := c.Get("userID").(string)
	if !ok || userID == "" {
		return "", "", RespondWithError(c, http.StatusUnauthorized, "Missing authentication")
	}
	role, ok := c.Get("userRole").(models.Role)
	if !ok {
		return "", "", RespondWithError(c, http.StatusUnauthorized, "Missing authentication")
	}
	return userID, role, nil
}

// GetPageLimit reads page/limit query params with sane defaults.
func GetPageLimit(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// HandleServiceError maps service-layer sentinel errors to HTTP statuses.
// Unknown errors surface as 500 with a generic message so internals never leak.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrUnauthorizedPaymentUpdate):
		return RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrCouponAlreadyApplied),
		errors.Is(err, models.ErrNoCouponApplied):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidOrderAmount),
		errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, models.ErrCouponInactive),
		errors.Is(err, models.ErrCouponExpired),
		errors.Is(err, models.ErrCouponNotApplicable),
		errors.Is(err, models.ErrBelowMinimumOrder),
		errors.Is(err, models.ErrUsageLimitExceeded),
		errors.Is(err, models.ErrDuplicateCouponCode),
		errors.Is(err, models.ErrDuplicateActiveCouponType),
		errors.Is(err, models.ErrOrderNotAssignable),
		errors.Is(err, models.ErrInvalidDeliveryPerson),
		errors.Is(err, models.ErrFieldNotPermitted):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrDownstreamFailure):
		return RespondWithError(c, http.StatusBadGateway, err.Error())
	default:
		c.Logger().Errorf("unhandled service error: %v", err)
		return RespondWithError(c, http.StatusInternalServerError, "Something went wrong")
	}
}
