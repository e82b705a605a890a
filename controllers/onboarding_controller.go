package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
)

type OnboardingController struct {
	users *services.UserService
}

func NewOnboardingController(users *services.UserService) *OnboardingController {
	return &OnboardingController{users: users}
}

// Onboard creates the user of a wallet as student or provider
func (oc *OnboardingController) Onboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.OnboardingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := oc.users.Onboard(ctx, req)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusCreated, "Onboarding completed", user)
}

func (oc *OnboardingController) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	status, err := oc.users.Status(ctx, c.Param("wallet"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", status)
}
