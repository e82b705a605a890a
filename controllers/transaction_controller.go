package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
	"github.com/HSouheill/scholarfund_backend/utils"
)

// TransactionController exposes payouts of paid applications
type TransactionController struct {
	applications *services.ApplicationService
}

func NewTransactionController(applications *services.ApplicationService) *TransactionController {
	return &TransactionController{applications: applications}
}

func (tc *TransactionController) ListByWallet(c echo.Context) error {
	wallet, err := utils.NormalizeWallet(c.Param("wallet"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid wallet address")
	}
	return tc.list(c, models.ApplicationFilter{WalletAddress: wallet})
}

func (tc *TransactionController) ListByPool(c echo.Context) error {
	pool, err := utils.NormalizeWallet(c.Param("poolAddress"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid pool address")
	}
	return tc.list(c, models.ApplicationFilter{PoolAddress: pool})
}

func (tc *TransactionController) list(c echo.Context, filter models.ApplicationFilter) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	filter.Page, filter.Limit = utils.ParsePagination(c.QueryParam("page"), c.QueryParam("limit"), defaultPageSize, maxPageSize)

	txs, total, err := tc.applications.Transactions(ctx, filter)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "", models.Page{Items: txs, Total: total, Page: filter.Page, Limit: filter.Limit})
}

// Record marks an application paid with its on-chain transaction
func (tc *TransactionController) Record(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.RecordTransactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := tc.applications.MarkPaid(ctx, req.ApplicationID, req.TransactionHash, req.Amount)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusCreated, "Transaction recorded", app.ToTransaction())
}
