package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
)

// RegisterApplicationRoutes sets up the public applicant routes
func RegisterApplicationRoutes(api *echo.Group, ac *controllers.ApplicationController) {
	applications := api.Group("/applications")

	applications.POST("", ac.Submit)
	applications.GET("/verify/:token", ac.VerifyEmailByLink)
	applications.POST("/verify", ac.VerifyEmail)
	applications.GET("/check", ac.CheckApplied)
	applications.GET("/wallet/:wallet", ac.ListByWallet)
	applications.GET("/pool/:poolAddress", ac.ListByPool)
	applications.GET("/:id", ac.Get)
}
