package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

// errorHandler renders every error as {success:false, message, errors?}.
// Internal error details are logged, never sent to the client.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", status,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		verr    *service.ValidationError
		httpErr *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		fields := make([]dto.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = dto.FieldError{Field: f.Field, Message: f.Message}
		}
		return http.StatusBadRequest, dto.ErrorResponse{Message: "Validation failed", Errors: fields}

	case errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrMissingCustomerInfo),
		errors.Is(err, service.ErrPaymentVerificationFailed),
		errors.Is(err, service.ErrOtpNotFound),
		errors.Is(err, service.ErrOtpExpired),
		errors.Is(err, service.ErrOtpMismatch),
		errors.Is(err, service.ErrUserExists):
		return http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()}

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Message: err.Error()}

	case errors.Is(err, service.ErrIllegalTransition):
		return http.StatusConflict, dto.ErrorResponse{Message: err.Error()}

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorResponse{Message: err.Error()}

	case errors.Is(err, service.ErrGateway):
		return http.StatusInternalServerError, dto.ErrorResponse{Message: "Payment gateway is unavailable, please try again"}

	case errors.Is(err, service.ErrNotify):
		return http.StatusInternalServerError, dto.ErrorResponse{Message: "Could not send email, please try again"}

	case errors.As(err, &httpErr):
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, dto.ErrorResponse{Message: http.StatusText(httpErr.Code)}
		}
		return httpErr.Code, dto.ErrorResponse{Message: fmt.Sprint(httpErr.Message)}
	}

	return http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"}
}
