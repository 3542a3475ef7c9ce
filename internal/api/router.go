package api

import (
	"net/http"

	"plateful-backend/internal/api/middleware"
	"plateful-backend/internal/modules/catalog"
	"plateful-backend/internal/modules/coupons"
	"plateful-backend/internal/modules/delivery"
	"plateful-backend/internal/modules/orders"
	"plateful-backend/internal/modules/payments"
	"plateful-backend/internal/modules/users"

	"plateful-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	userHandler *users.Handler,
	catalogHandler *catalog.Handler,
	orderHandler *orders.Handler,
	couponHandler *coupons.Handler,
	deliveryHandler *delivery.Handler,
	paymentHandler *payments.Handler,
	jwtSecret string,
) {
	// Initialize the JWT authentication middleware
	authMiddleware := middleware.JWTAuth(jwtSecret)
	// Initialize an Admin role authorization middleware
	adminRequired := middleware.AdminRequired()
	courierRequired := middleware.RequireRole(models.RoleDeliveryPerson)

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to Plateful!"})
	})

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", userHandler.Signup)
		authGroup.POST("/activate", userHandler.Activate)
		authGroup.POST("/login", userHandler.Login)
		authGroup.POST("/google/login", userHandler.GoogleLogin)
	}

	// --- User Profile & Addresses ---
	profileGroup := e.Group("/profile", authMiddleware)
	{
		profileGroup.GET("", userHandler.GetMyProfile)
		profileGroup.PUT("", userHandler.UpdateMyProfile)
		profileGroup.GET("/addresses", userHandler.ListMyAddresses)
		profileGroup.POST("/addresses", userHandler.AddAddress)
		profileGroup.PUT("/addresses/:addressId", userHandler.UpdateAddress)
		profileGroup.DELETE("/addresses/:addressId", userHandler.DeleteAddress)
	}

	// --- Restaurant & Menu Routes ---
	restaurantGroup := e.Group("/restaurants")
	{
		restaurantGroup.GET("", catalogHandler.ListRestaurants)
		restaurantGroup.GET("/:restaurantId", catalogHandler.GetRestaurant)
		restaurantGroup.GET("/:restaurantId/menu", catalogHandler.ListMenu)

		restaurantGroup.POST("", catalogHandler.CreateRestaurant, authMiddleware)
		restaurantGroup.POST("/:restaurantId/menu", catalogHandler.AddMenuItem, authMiddleware)
		restaurantGroup.PUT("/:restaurantId/menu/:itemId", catalogHandler.UpdateMenuItem, authMiddleware)

		restaurantGroup.GET("/:restaurantId/orders", orderHandler.ListRestaurantOrders, authMiddleware)
		restaurantGroup.GET("/:restaurantId/coupons", couponHandler.ListRestaurantCoupons, authMiddleware)
	}

	// --- Order Routes ---
	orderGroup := e.Group("/orders", authMiddleware)
	{
		orderGroup.POST("", orderHandler.PlaceOrder)
		orderGroup.GET("", orderHandler.ListMyOrders)
		orderGroup.GET("/:orderId", orderHandler.GetOrder)
		orderGroup.PATCH("/:orderId/status", orderHandler.UpdateOrderStatus)
		orderGroup.POST("/:orderId/coupon", orderHandler.ApplyCoupon)
		orderGroup.DELETE("/:orderId/coupon", orderHandler.RemoveCoupon)

		// Payments are addressed through their order.
		orderGroup.POST("/:orderId/payment", paymentHandler.ProcessPayment)
	}

	paymentGroup := e.Group("/payments", authMiddleware)
	{
		paymentGroup.GET("/:paymentId", paymentHandler.GetPayment)
		paymentGroup.PATCH("/:paymentId", paymentHandler.UpdatePayment)
	}

	// --- Coupon Routes ---
	couponGroup := e.Group("/coupons", authMiddleware)
	{
		couponGroup.POST("", couponHandler.CreateCoupon)
		couponGroup.GET("", couponHandler.ListCoupons)
		couponGroup.GET("/:couponId", couponHandler.GetCoupon)
		couponGroup.PUT("/:couponId", couponHandler.UpdateCoupon)
		couponGroup.DELETE("/:couponId", couponHandler.DeleteCoupon)
	}

	// --- Delivery Routes ---
	deliveryGroup := e.Group("/delivery", authMiddleware, courierRequired)
	{
		deliveryGroup.GET("/assignments", deliveryHandler.ListMyAssignments)
		deliveryGroup.PATCH("/orders/:orderId/pickup", deliveryHandler.MarkOutForDelivery)
		deliveryGroup.PATCH("/orders/:orderId/delivered", deliveryHandler.MarkDelivered)
	}

	// --- Admin Routes ---
	adminGroup := e.Group("/admin", authMiddleware, adminRequired)
	{
		adminGroup.GET("/orders", orderHandler.ListAllOrders)
		adminGroup.POST("/orders/:orderId/assign", deliveryHandler.Assign)
		adminGroup.PATCH("/users/:userId/approval", userHandler.SetApproval)
	}
}
