// controllers/response.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/services"
)

const requestTimeout = 10 * time.Second

// exposeInternalErrors lets 500 responses carry the underlying message
var exposeInternalErrors = true

// SetProduction hides internal error details from clients
func SetProduction(production bool) {
	exposeInternalErrors = !production
}

func success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, models.Response{
		Success: false,
		Error:   message,
	})
}

// statusFor maps a service error kind to an HTTP status. Business-rule
// conflicts are reported as 400 like any other rejected request.
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindConflict:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes the envelope for an error returned by a service
func serviceError(c echo.Context, err error) error {
	kind := services.KindOf(err)
	status := statusFor(kind)

	if status < http.StatusInternalServerError {
		return fail(c, status, services.Message(err))
	}

	log.Error().Err(err).
		Str("path", c.Request().URL.Path).
		Str("method", c.Request().Method).
		Msg("Request failed")

	if exposeInternalErrors {
		return fail(c, status, err.Error())
	}
	return fail(c, status, "Internal server error")
}

// HTTPErrorHandler renders every error that reaches Echo in the envelope
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		if he.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Unhandled HTTP error")
		}
		_ = fail(c, he.Code, message)
		return
	}

	_ = serviceError(c, err)
}

// bindAndValidate binds the request body into req and runs struct validation.
// The returned error is an *echo.HTTPError ready to be returned by the handler.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	return nil
}

// validationMessage turns validator errors into one readable line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "eth_addr":
		return field + " must be a valid wallet address"
	case "objectid":
		return field + " must be a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
