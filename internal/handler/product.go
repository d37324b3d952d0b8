package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.productService.ListProducts(ctx, c.QueryParam("category"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ListResponse{
		Success: true,
		Count:   len(products),
		Data:    products,
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.productService.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: product})
}
