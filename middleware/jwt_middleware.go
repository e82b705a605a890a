// middleware/jwt_middleware.go
package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/security"
)

// Context keys set after a token is accepted
const (
	ContextWallet = "walletAddress"
	ContextRole   = "role"
)

// JWTMiddleware returns a configured JWT middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	if secret == "" {
		log.Warn().Msg("JWT secret is not set, authenticated routes will reject every request")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Success: false,
					Error:   "JWT configuration error",
				})
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &security.Claims{},
		SuccessHandler: func(c echo.Context) {
			claims := GetClaims(c)
			if claims == nil {
				return
			}
			c.Set(ContextWallet, claims.WalletAddress)
			c.Set(ContextRole, claims.Role)
		},
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			log.Debug().Err(err).Str("path", c.Request().URL.Path).Msg("JWT rejected")
			message := "Please provide valid credentials"
			if err == middleware.ErrJWTMissing {
				message = "Missing authorization token"
			}
			return c.JSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Error:   message,
			})
		},
	})
}

// GetClaims extracts the session claims from the context
func GetClaims(c echo.Context) *security.Claims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		return nil
	}

	claims, ok := token.Claims.(*security.Claims)
	if !ok {
		return nil
	}

	return claims
}

// ExtractWallet returns the wallet of the authenticated caller
func ExtractWallet(c echo.Context) string {
	if wallet, ok := c.Get(ContextWallet).(string); ok && wallet != "" {
		return wallet
	}
	if claims := GetClaims(c); claims != nil {
		return claims.WalletAddress
	}
	return ""
}

// ExtractRole returns the role of the authenticated caller
func ExtractRole(c echo.Context) models.Role {
	if role, ok := c.Get(ContextRole).(models.Role); ok && role != "" {
		return role
	}
	if claims := GetClaims(c); claims != nil {
		return claims.Role
	}
	return ""
}
