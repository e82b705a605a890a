package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/websocket"
)

// Controllers bundles every handler the API mounts
type Controllers struct {
	Applications *controllers.ApplicationController
	Admin        *controllers.AdminController
	Onboarding   *controllers.OnboardingController
	OTP          *controllers.OTPController
	Users        *controllers.UserController
	Transactions *controllers.TransactionController
	Auth         *controllers.AuthController
	// Debug is nil in production
	Debug *controllers.DebugController
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, ctrl Controllers, jwt echo.MiddlewareFunc, hub *websocket.Hub, jwtSecret string) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{
			Success: true,
			Message: "ScholarFund backend is running",
			Data:    map[string]string{"status": "healthy"},
		})
	})

	api := e.Group("/api")

	RegisterApplicationRoutes(api, ctrl.Applications)
	RegisterAdminRoutes(api, ctrl.Admin, jwt)
	RegisterOnboardingRoutes(api, ctrl.Onboarding)
	RegisterOTPRoutes(api, ctrl.OTP)
	RegisterUserRoutes(api, ctrl.Users, jwt)
	RegisterTransactionRoutes(api, ctrl.Transactions, jwt)
	RegisterAuthRoutes(api, ctrl.Auth, jwt)

	if ctrl.Debug != nil {
		RegisterDebugRoutes(api, ctrl.Debug)
	}

	if hub != nil {
		api.GET("/ws", websocket.HandleWebSocket(hub, jwtSecret))
	}
}
