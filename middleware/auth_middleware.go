// middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
)

// RequireRole checks if the authenticated wallet has one of the allowed roles
func RequireRole(allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := ExtractRole(c)

			if role == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Success: false,
					Error:   "Authentication failed: role not found",
				})
			}

			for _, r := range allowed {
				if role == r {
					return next(c)
				}
			}

			log.Warn().
				Str("path", c.Request().URL.Path).
				Str("wallet", ExtractWallet(c)).
				Str("role", string(role)).
				Msg("Access denied for role")
			return c.JSON(http.StatusForbidden, models.Response{
				Success: false,
				Error:   "Access denied for your role",
			})
		}
	}
}

// RequireWalletOwner lets a request through only when the wallet in the path
// parameter is the caller's own wallet. Admins may act on any wallet.
func RequireWalletOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := ExtractWallet(c)
			if caller == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Success: false,
					Error:   "Authentication required",
				})
			}

			if ExtractRole(c) == models.RoleAdmin || strings.EqualFold(caller, c.Param(param)) {
				return next(c)
			}

			return c.JSON(http.StatusForbidden, models.Response{
				Success: false,
				Error:   "You can only modify your own account",
			})
		}
	}
}
