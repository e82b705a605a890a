// controllers/admin_controller.go
package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/middleware"
	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
	"github.com/HSouheill/scholarfund_backend/utils"
)

// AdminController serves the review side of the workflow
type AdminController struct {
	applications *services.ApplicationService
	users        *services.UserService
}

// NewAdminController creates a new admin controller
func NewAdminController(applications *services.ApplicationService, users *services.UserService) *AdminController {
	return &AdminController{applications: applications, users: users}
}

// reviewer prefers the authenticated admin wallet over the one in the body
func reviewer(c echo.Context, fromBody string) string {
	if wallet := middleware.ExtractWallet(c); wallet != "" {
		return wallet
	}
	return fromBody
}

// ListApplications lists applications filtered by ?status= and ?poolAddress=
func (ac *AdminController) ListApplications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	page, limit := utils.ParsePagination(c.QueryParam("page"), c.QueryParam("limit"), defaultPageSize, maxPageSize)
	filter := models.ApplicationFilter{
		Status:        models.ApplicationStatus(c.QueryParam("status")),
		PoolAddress:   c.QueryParam("poolAddress"),
		WalletAddress: c.QueryParam("walletAddress"),
		Page:          page,
		Limit:         limit,
	}

	apps, total, err := ac.applications.List(ctx, filter)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", models.Page{Items: apps, Total: total, Page: page, Limit: limit})
}

func (ac *AdminController) GetApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	app, err := ac.applications.Get(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", app)
}

func (ac *AdminController) Approve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.ReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := ac.applications.Approve(ctx, c.Param("id"), reviewer(c, req.AdminAddress), req.Notes)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Application approved", app)
}

func (ac *AdminController) Reject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.ReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := ac.applications.Reject(ctx, c.Param("id"), reviewer(c, req.AdminAddress), req.Notes)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Application rejected", app)
}

func (ac *AdminController) MarkPaid(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.MarkPaidRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := ac.applications.MarkPaid(ctx, c.Param("id"), req.TransactionHash, req.Amount)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Application marked as paid", app)
}

// BatchApprove always answers 200; per-id failures are in the body
func (ac *AdminController) BatchApprove(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 6*requestTimeout)
	defer cancel()

	var req models.BatchApproveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result := ac.applications.BatchApprove(ctx, req.IDs, reviewer(c, req.AdminAddress), req.Notes)

	log.Info().
		Str("admin", middleware.ExtractWallet(c)).
		Int("requested", len(req.IDs)).
		Int("approved", len(result.Approved)).
		Msg("Batch approval requested")

	return success(c, http.StatusOK, "Batch approval completed", result)
}

// Stats counts applications per status, optionally for ?poolAddress=
func (ac *AdminController) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stats, err := ac.applications.Stats(ctx, c.QueryParam("poolAddress"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", stats)
}

// ListUsers lists onboarded users, optionally by ?role=
func (ac *AdminController) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	page, limit := utils.ParsePagination(c.QueryParam("page"), c.QueryParam("limit"), defaultPageSize, maxPageSize)

	users, total, err := ac.users.List(ctx, models.UserFilter{
		Role:  models.Role(c.QueryParam("role")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", models.Page{Items: users, Total: total, Page: page, Limit: limit})
}
