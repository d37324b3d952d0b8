package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.CreateOrder(ctx, service.CreateOrderInput{
		Items:         req.Items,
		Total:         req.Total,
		CustomerInfo:  req.CustomerInfo,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.Response{
		Success: true,
		Message: "Order created successfully",
		Data:    order,
	})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.ListOrdersQuery
	if err := c.Bind(&query); err != nil {
		return err
	}

	page, err := h.orderService.ListOrders(ctx, service.ListOrdersInput{
		Email:  query.Email,
		Status: model.PaymentStatus(query.Status),
		Page:   query.Page,
		Limit:  query.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.OrderListResponse{
		Success: true,
		Count:   len(page.Orders),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
		Data:    page.Orders,
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: order})
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, c.Param("id"), service.StatusChange{
		PaymentStatus: req.PaymentStatus,
		OrderStatus:   req.OrderStatus,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Message: "Order updated successfully",
		Data:    order,
	})
}
