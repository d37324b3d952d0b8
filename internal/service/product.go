package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/model"
	"storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductService interface {
	ListProducts(ctx context.Context, category string) ([]*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

func (s *productServiceImpl) ListProducts(ctx context.Context, category string) ([]*model.Product, error) {
	return s.productRepo.List(ctx, category)
}

func (s *productServiceImpl) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}
