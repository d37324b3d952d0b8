package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) SendOTP(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendOtpRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.authService.RequestSignupOTP(ctx, req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "OTP sent to your email"})
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	result, err := h.authService.CompleteSignup(ctx, service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		OTP:      req.OTP,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.authService.Me(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: user})
}
