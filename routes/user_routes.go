package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
	"github.com/HSouheill/scholarfund_backend/middleware"
)

// RegisterUserRoutes mounts profile reads (public) and updates (owner only)
func RegisterUserRoutes(api *echo.Group, uc *controllers.UserController, jwt echo.MiddlewareFunc) {
	users := api.Group("/user")
	users.GET("/:wallet", uc.GetUser)

	owner := []echo.MiddlewareFunc{jwt, middleware.RequireWalletOwner("wallet")}
	users.PUT("/:wallet/profile", uc.UpdateProfile, owner...)
	users.PUT("/:wallet/preferences", uc.UpdatePreferences, owner...)
	users.PUT("/:wallet/role-data", uc.UpdateRoleData, owner...)
	users.POST("/:wallet/verify-email", uc.VerifyEmail, owner...)
}
