// controllers/application_controller.go
package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
	"github.com/HSouheill/scholarfund_backend/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ApplicationController serves the applicant side of the workflow
type ApplicationController struct {
	applications *services.ApplicationService
}

// NewApplicationController creates a new application controller
func NewApplicationController(applications *services.ApplicationService) *ApplicationController {
	return &ApplicationController{applications: applications}
}

// Submit accepts JSON or a multipart form with an optional "document" file
func (ac *ApplicationController) Submit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*requestTimeout)
	defer cancel()

	var req models.SubmitApplicationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	file, err := readDocument(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	app, err := ac.applications.Submit(ctx, req, file)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusCreated, "Application submitted. Please check your email to verify it", app)
}

// readDocument returns the uploaded document, or nil when none was sent
func readDocument(c echo.Context) (*models.UploadedFile, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}

	fh, err := c.FormFile("document")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("Invalid document upload")
	}
	if fh.Size > utils.MaxDocumentSize {
		return nil, errors.New("file too large, maximum size is 10MB")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, errors.New("Failed to read document")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, utils.MaxDocumentSize+1))
	if err != nil {
		return nil, errors.New("Failed to read document")
	}

	return &models.UploadedFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

// VerifyEmailByLink handles GET /verify/:token from the emailed link
func (ac *ApplicationController) VerifyEmailByLink(c echo.Context) error {
	return ac.verify(c, c.Param("token"))
}

// VerifyEmail handles POST /verify with {token}
func (ac *ApplicationController) VerifyEmail(c echo.Context) error {
	var req models.VerifyApplicationEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return ac.verify(c, req.Token)
}

func (ac *ApplicationController) verify(c echo.Context, token string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	app, err := ac.applications.VerifyEmail(ctx, token)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "Email verified successfully", app)
}

// CheckApplied reports whether ?walletAddress= already applied to ?poolAddress=
func (ac *ApplicationController) CheckApplied(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	wallet := c.QueryParam("walletAddress")
	pool := c.QueryParam("poolAddress")
	if wallet == "" || pool == "" {
		return fail(c, http.StatusBadRequest, "walletAddress and poolAddress are required")
	}

	applied, status, err := ac.applications.HasApplied(ctx, wallet, pool)
	if err != nil {
		return serviceError(c, err)
	}

	data := map[string]interface{}{"hasApplied": applied}
	if applied {
		data["status"] = status
	}
	return success(c, http.StatusOK, "", data)
}

// ListByWallet returns the applications of a wallet
func (ac *ApplicationController) ListByWallet(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	page, limit := utils.ParsePagination(c.QueryParam("page"), c.QueryParam("limit"), defaultPageSize, maxPageSize)

	apps, total, err := ac.applications.ListByWallet(ctx, c.Param("wallet"), page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", models.Page{Items: apps, Total: total, Page: page, Limit: limit})
}

// ListByPool returns the applications to a pool, optionally filtered by ?status=
func (ac *ApplicationController) ListByPool(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	page, limit := utils.ParsePagination(c.QueryParam("page"), c.QueryParam("limit"), defaultPageSize, maxPageSize)
	status := models.ApplicationStatus(c.QueryParam("status"))

	apps, total, err := ac.applications.ListByPool(ctx, c.Param("poolAddress"), status, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", models.Page{Items: apps, Total: total, Page: page, Limit: limit})
}

// Get returns one application
func (ac *ApplicationController) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	app, err := ac.applications.Get(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", app)
}
