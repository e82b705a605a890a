package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
	"github.com/HSouheill/scholarfund_backend/middleware"
	"github.com/HSouheill/scholarfund_backend/models"
)

// RegisterAdminRoutes sets up all admin-related routes
func RegisterAdminRoutes(api *echo.Group, ac *controllers.AdminController, jwt echo.MiddlewareFunc) {
	// Protected routes (require admin authentication)
	admin := api.Group("/admin", jwt, middleware.RequireRole(models.RoleAdmin))

	// Static segment first so it does not match :id
	admin.POST("/applications/batch-approve", ac.BatchApprove)

	admin.GET("/applications", ac.ListApplications)
	admin.GET("/applications/:id", ac.GetApplication)
	admin.POST("/applications/:id/approve", ac.Approve)
	admin.POST("/applications/:id/reject", ac.Reject)
	admin.POST("/applications/:id/mark-paid", ac.MarkPaid)

	admin.GET("/stats", ac.Stats)
	admin.GET("/users", ac.ListUsers)
}
