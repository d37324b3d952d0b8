package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"
	"strings"

	"github.com/labstack/echo/v4"
)

const deviceIDHeader = "X-Device-Id"

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func deviceIDFromHeader(c echo.Context) (string, error) {
	deviceID := strings.TrimSpace(c.Request().Header.Get(deviceIDHeader))
	if deviceID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing X-Device-Id header")
	}
	if len(deviceID) > 128 {
		return "", echo.NewHTTPError(http.StatusBadRequest, "X-Device-Id header too long")
	}
	return deviceID, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	state, err := h.cartService.GetCart(ctx, deviceID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: state})
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "productId is required")
	}

	state, err := h.cartService.AddItem(ctx, deviceID, req.ProductID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: state})
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity is required")
	}

	state, err := h.cartService.UpdateQuantity(ctx, deviceID, c.Param("productId"), *req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: state})
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	state, err := h.cartService.RemoveItem(ctx, deviceID, c.Param("productId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: state})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	deviceID, err := deviceIDFromHeader(c)
	if err != nil {
		return err
	}

	state, err := h.cartService.ClearCart(ctx, deviceID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: state})
}
