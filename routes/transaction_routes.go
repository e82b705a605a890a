package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/controllers"
	"github.com/HSouheill/scholarfund_backend/middleware"
	"github.com/HSouheill/scholarfund_backend/models"
)

func RegisterTransactionRoutes(api *echo.Group, tc *controllers.TransactionController, jwt echo.MiddlewareFunc) {
	transactions := api.Group("/transactions")
	transactions.GET("/wallet/:wallet", tc.ListByWallet)
	transactions.GET("/pool/:poolAddress", tc.ListByPool)
	transactions.POST("", tc.Record, jwt, middleware.RequireRole(models.RoleAdmin))
}
