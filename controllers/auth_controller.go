// controllers/auth_controller.go
package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/middleware"
	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
)

// AuthController handles wallet sign-in
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates a new auth controller
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Nonce returns the message the wallet has to sign
func (ac *AuthController) Nonce(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	nonce, err := ac.auth.Nonce(ctx, c.Param("wallet"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", nonce)
}

// Verify checks the signed nonce and returns a session token
func (ac *AuthController) Verify(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.WalletLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	login, err := ac.auth.Login(ctx, req.WalletAddress, req.Signature)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Login successful", login)
}

// Me describes the authenticated caller
func (ac *AuthController) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	claims := middleware.GetClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}

	me, err := ac.auth.Me(ctx, claims)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", me)
}
