// controllers/user_controller.go
package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
)

// UserController contains user management logic
type UserController struct {
	users *services.UserService
}

// NewUserController creates a new user controller
func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GetUser returns the public user document of a wallet
func (uc *UserController) GetUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	user, err := uc.users.Get(ctx, c.Param("wallet"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", user)
}

func (uc *UserController) UpdateProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var profile models.Profile
	if err := bindAndValidate(c, &profile); err != nil {
		return err
	}

	user, err := uc.users.UpdateProfile(ctx, c.Param("wallet"), profile)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Profile updated successfully", user)
}

func (uc *UserController) UpdatePreferences(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var prefs models.NotificationPreferences
	if err := bindAndValidate(c, &prefs); err != nil {
		return err
	}

	user, err := uc.users.UpdatePreferences(ctx, c.Param("wallet"), prefs)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Preferences updated successfully", user)
}

func (uc *UserController) UpdateRoleData(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.RoleDataRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := uc.users.UpdateRoleData(ctx, c.Param("wallet"), req)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Role data updated successfully", user)
}

// VerifyEmail stores an email whose OTP the wallet already verified
func (uc *UserController) VerifyEmail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.UserEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := uc.users.VerifyEmail(ctx, c.Param("wallet"), req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Email verified successfully", user)
}
