package repository

import (
	"context"
	"errors"
	"storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStatusChanged is returned when an order's status moved between read and update.
var ErrStatusChanged = errors.New("order status changed concurrently")

type OrderFilter struct {
	Email         string
	PaymentStatus model.PaymentStatus
	Offset        int
	Limit         int
}

// StatusUpdate carries the statuses an update expects to find and the ones it writes.
type StatusUpdate struct {
	FromPayment model.PaymentStatus
	FromOrder   model.OrderStatus
	ToPayment   model.PaymentStatus
	ToOrder     model.OrderStatus
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) (*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

// Create stores the order and its item snapshot in one transaction.
func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return tx.Create(&order.Items).Error
	})
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("gateway_payment_id = ?", paymentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Email != "" {
		query = query.Where("customer_email = ?", filter.Email)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC").
		Order("id").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where(`
				id = ?
				AND payment_status = ?
				AND order_status = ?
			`,
				orderID,
				update.FromPayment,
				update.FromOrder,
			).
			Updates(map[string]interface{}{
				"payment_status": update.ToPayment,
				"order_status":   update.ToOrder,
				"updated_at":     time.Now(),
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrStatusChanged
		}

		return tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Where("id = ?", orderID).
			First(&order).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}
