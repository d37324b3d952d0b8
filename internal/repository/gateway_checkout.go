package repository

import (
	"context"
	"errors"
	"storefront/internal/model"
	"time"

	"gorm.io/gorm"
)

// ErrCheckoutSettled is returned when a gateway checkout has already produced an order.
var ErrCheckoutSettled = errors.New("gateway checkout already settled")

type GatewayCheckoutRepository interface {
	Create(ctx context.Context, checkout *model.GatewayCheckout) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.GatewayCheckout, error)
	MarkPaid(ctx context.Context, gatewayOrderID, orderID string) error
}

type gatewayCheckoutRepoImpl struct {
	db *gorm.DB
}

func NewGatewayCheckoutRepository(db *gorm.DB) GatewayCheckoutRepository {
	return &gatewayCheckoutRepoImpl{
		db: db,
	}
}

func (r *gatewayCheckoutRepoImpl) Create(ctx context.Context, checkout *model.GatewayCheckout) error {
	return r.db.WithContext(ctx).Create(checkout).Error
}

func (r *gatewayCheckoutRepoImpl) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.GatewayCheckout, error) {
	var checkout model.GatewayCheckout
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&checkout).Error

	if err != nil {
		return nil, err
	}

	return &checkout, nil
}

// MarkPaid moves a pending checkout to paid and records the order it produced.
func (r *gatewayCheckoutRepoImpl) MarkPaid(ctx context.Context, gatewayOrderID, orderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.GatewayCheckout{}).
			Where(`
				gateway_order_id = ?
				AND status = ?
			`,
				gatewayOrderID,
				model.GatewayCheckoutPending,
			).
			Updates(map[string]interface{}{
				"status":     model.GatewayCheckoutPaid,
				"order_id":   orderID,
				"updated_at": time.Now(),
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.GatewayCheckout{}).Where("gateway_order_id = ?", gatewayOrderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrCheckoutSettled
		}
		return nil
	})
}
