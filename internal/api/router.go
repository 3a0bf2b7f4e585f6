package api

import (
	"net/http"

	"e-courier/internal/api/middleware"
	"e-courier/internal/models"
	"e-courier/internal/modules/cities"
	"e-courier/internal/modules/hubs"
	"e-courier/internal/modules/payments"
	"e-courier/internal/modules/pricing"
	"e-courier/internal/modules/shipments"
	"e-courier/internal/modules/users"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	userHandler *users.Handler,
	shipmentHandler *shipments.Handler,
	cityHandler *cities.Handler,
	hubHandler *hubs.Handler,
	pricingHandler *pricing.Handler,
	paymentHandler *payments.Handler,
	jwtSecret string,
	uploadDir string,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	adminOnly := middleware.RoleRequired(models.RoleAdmin)
	courierOnly := middleware.RoleRequired(models.RoleCourier)

	// Generated QR images are served straight from disk.
	e.Static("/uploads", uploadDir)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "E-Courier API"})
	})

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", userHandler.Register)
		authGroup.POST("/login", userHandler.Login)
	}

	shipmentGroup := v1.Group("/shipments", authMiddleware)
	{
		shipmentGroup.POST("", shipmentHandler.Create, middleware.RoleRequired(models.RoleCustomer, models.RoleAdmin))
		shipmentGroup.PUT("/:id", shipmentHandler.Update, adminOnly)
		shipmentGroup.POST("/assign-courier", shipmentHandler.AssignCourier, adminOnly)
		shipmentGroup.POST("/update-courier", shipmentHandler.UpdateCourier, adminOnly)
		shipmentGroup.POST("/set-weight", shipmentHandler.SetWeight, courierOnly)
		shipmentGroup.POST("/mark-paid", shipmentHandler.MarkPaid)
		shipmentGroup.POST("/qr-details", shipmentHandler.QRDetails, courierOnly)
		shipmentGroup.POST("/scan-pickup", shipmentHandler.ScanPickup, courierOnly)
		shipmentGroup.POST("/update-status", shipmentHandler.UpdateStatus, middleware.RoleRequired(models.RoleAdmin, models.RoleCourier))
		shipmentGroup.GET("/customer", shipmentHandler.ListForCustomer)
		shipmentGroup.GET("/courier", shipmentHandler.ListForCourier, courierOnly)
		shipmentGroup.GET("", shipmentHandler.ListAll, adminOnly)
		shipmentGroup.GET("/:id", shipmentHandler.Get)
		shipmentGroup.GET("/:id/logs", shipmentHandler.Logs)
		shipmentGroup.DELETE("/:id", shipmentHandler.Delete, adminOnly)
	}

	cityGroup := v1.Group("/cities", authMiddleware)
	{
		cityGroup.GET("", cityHandler.List)
		cityGroup.GET("/:id", cityHandler.Get)
		cityGroup.POST("", cityHandler.Create, adminOnly)
		cityGroup.PUT("/:id", cityHandler.Update, adminOnly)
		cityGroup.DELETE("/:id", cityHandler.Delete, adminOnly)
	}

	hubGroup := v1.Group("/hubs", authMiddleware)
	{
		hubGroup.GET("", hubHandler.List)
		hubGroup.GET("/:id", hubHandler.Get)
		hubGroup.POST("", hubHandler.Create, adminOnly)
		hubGroup.PUT("/:id", hubHandler.Update, adminOnly)
		hubGroup.DELETE("/:id", hubHandler.Delete, adminOnly)
	}

	pricingGroup := v1.Group("/pricing-rules", authMiddleware, adminOnly)
	{
		pricingGroup.GET("", pricingHandler.List)
		pricingGroup.GET("/:id", pricingHandler.Get)
		pricingGroup.POST("", pricingHandler.Create)
		pricingGroup.PUT("/:id", pricingHandler.Update)
		pricingGroup.DELETE("/:id", pricingHandler.Delete)
	}

	paymentGroup := v1.Group("/payments", authMiddleware, adminOnly)
	{
		paymentGroup.GET("", paymentHandler.List)
		paymentGroup.GET("/:id", paymentHandler.Get)
	}

	userGroup := v1.Group("/users", authMiddleware)
	{
		userGroup.GET("/couriers/public", userHandler.ListPublicCouriers)
		userGroup.GET("/customers/public", userHandler.ListPublicCustomers)

		userGroup.GET("", userHandler.ListAll, adminOnly)
		userGroup.GET("/admins", userHandler.ListAdmins, adminOnly)
		userGroup.GET("/couriers", userHandler.ListCouriers, adminOnly)
		userGroup.GET("/customers", userHandler.ListCustomers, adminOnly)
		userGroup.GET("/:id", userHandler.Get, adminOnly)
		userGroup.POST("", userHandler.Create, adminOnly)
		userGroup.PUT("/:id", userHandler.Update, adminOnly)
		userGroup.DELETE("/:id", userHandler.Delete, adminOnly)
	}
}
