package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
	"github.com/HSouheill/scholarfund_backend/utils"
)

type OTPController struct {
	otp *services.OTPService
}

func NewOTPController(otp *services.OTPService) *OTPController {
	return &OTPController{otp: otp}
}

func (oc *OTPController) Send(c echo.Context) error {
	return oc.send(c, "OTP sent successfully")
}

func (oc *OTPController) Resend(c echo.Context) error {
	return oc.send(c, "OTP resent successfully")
}

func (oc *OTPController) send(c echo.Context, message string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*requestTimeout)
	defer cancel()

	var req models.SendOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	otp, err := oc.otp.Send(ctx, req.Email, req.WalletAddress)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, message, map[string]interface{}{
		"email":     utils.MaskEmail(otp.Email),
		"expiresAt": otp.ExpiresAt,
	})
}

func (oc *OTPController) Verify(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.VerifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := oc.otp.Verify(ctx, req.Email, req.WalletAddress, req.OTP); err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, "OTP verified successfully", map[string]bool{"verified": true})
}
