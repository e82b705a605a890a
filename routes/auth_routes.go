package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
)

// RegisterAuthRoutes sets up wallet sign-in
func RegisterAuthRoutes(api *echo.Group, ac *controllers.AuthController, jwt echo.MiddlewareFunc) {
	auth := api.Group("/auth")
	auth.GET("/nonce/:wallet", ac.Nonce)
	auth.POST("/verify", ac.Verify)
	auth.GET("/me", ac.Me, jwt)
}

func RegisterDebugRoutes(api *echo.Group, dc *controllers.DebugController) {
	debug := api.Group("/debug")
	debug.GET("/health", dc.Health)
	debug.GET("/config", dc.Config)
}
