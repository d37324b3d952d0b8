package service

import (
	"context"
	"storefront/internal/cart"
)

type CartService interface {
	Session(deviceID string) CartSession
	GetCart(ctx context.Context, deviceID string) (cart.State, error)
	// AddItem adds one unit of a catalog product, priced from the catalog.
	AddItem(ctx context.Context, deviceID, productID string) (cart.State, error)
	UpdateQuantity(ctx context.Context, deviceID, productID string, quantity int) (cart.State, error)
	RemoveItem(ctx context.Context, deviceID, productID string) (cart.State, error)
	ClearCart(ctx context.Context, deviceID string) (cart.State, error)
}

type cartServiceImpl struct {
	manager        *cart.Manager
	productService ProductService
}

func NewCartService(
	manager *cart.Manager,
	productService ProductService,
) CartService {
	return &cartServiceImpl{
		manager:        manager,
		productService: productService,
	}
}

func (s *cartServiceImpl) Session(deviceID string) CartSession {
	return s.manager.Session(deviceID)
}

func (s *cartServiceImpl) GetCart(ctx context.Context, deviceID string) (cart.State, error) {
	return s.manager.Session(deviceID).Snapshot(ctx)
}

func (s *cartServiceImpl) AddItem(ctx context.Context, deviceID, productID string) (cart.State, error) {
	product, err := s.productService.GetProduct(ctx, productID)
	if err != nil {
		return cart.State{}, err
	}
	if !product.InStock {
		return cart.State{}, &ProductUnavailableError{ProductID: product.ID, Name: product.Name}
	}

	return s.manager.Session(deviceID).AddItem(ctx, cart.Item{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Image:     product.Image,
		Category:  product.Category,
	})
}

func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, deviceID, productID string, quantity int) (cart.State, error) {
	return s.manager.Session(deviceID).UpdateQuantity(ctx, productID, quantity)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, deviceID, productID string) (cart.State, error) {
	return s.manager.Session(deviceID).RemoveItem(ctx, productID)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, deviceID string) (cart.State, error) {
	return s.manager.Session(deviceID).Clear(ctx)
}
