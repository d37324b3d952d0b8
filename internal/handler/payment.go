package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	gatewayOrder, err := h.paymentService.CreateGatewayOrder(ctx, req.Amount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.Response{Success: true, Data: gatewayOrder})
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	ok := h.paymentService.Verify(service.PaymentConfirmation{
		OrderID:   req.GatewayOrderID,
		PaymentID: req.GatewayPaymentID,
		Signature: req.Signature,
	})
	if !ok {
		return service.ErrPaymentVerificationFailed
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Payment verified"})
}
