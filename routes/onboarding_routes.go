package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
)

func RegisterOnboardingRoutes(api *echo.Group, oc *controllers.OnboardingController) {
	onboarding := api.Group("/onboarding")
	onboarding.POST("", oc.Onboard)
	onboarding.GET("/status/:wallet", oc.Status)
}

func RegisterOTPRoutes(api *echo.Group, oc *controllers.OTPController) {
	otp := api.Group("/otp")
	otp.POST("/send", oc.Send)
	otp.POST("/verify", oc.Verify)
	otp.POST("/resend", oc.Resend)
}
