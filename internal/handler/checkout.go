package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	cartService     service.CartService
}

func NewCheckoutHandler(checkoutService service.CheckoutService, cartService service.CartService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		cartService:     cartService,
	}
}

func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.checkoutService.PlaceOrder(ctx, h.cartService.Session(deviceID), service.CheckoutInput{
		CustomerInfo:  req.CustomerInfo,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.Response{
		Success: true,
		Message: "Order placed successfully",
		Data:    order,
	})
}

func (h *CheckoutHandler) BeginGatewayCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.GatewayCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	gatewayOrder, err := h.checkoutService.BeginGatewayCheckout(ctx, h.cartService.Session(deviceID), req.CustomerInfo)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.Response{Success: true, Data: gatewayOrder})
}

func (h *CheckoutHandler) ConfirmGatewayCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.GatewayConfirmRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.checkoutService.ConfirmGatewayCheckout(ctx, h.cartService.Session(deviceID), service.GatewayConfirmation{
		CustomerInfo: req.CustomerInfo,
		Payment: service.PaymentConfirmation{
			OrderID:   req.GatewayOrderID,
			PaymentID: req.GatewayPaymentID,
			Signature: req.Signature,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.Response{
		Success: true,
		Message: "Payment verified and order placed",
		Data:    order,
	})
}
