package repository

import (
	"context"
	"storefront/internal/model"

	"gorm.io/gorm"
)

type OtpRepository interface {
	// Replace deletes every record for the email and stores the new one.
	Replace(ctx context.Context, record *model.OtpRecord) error
	FindLatest(ctx context.Context, email string) (*model.OtpRecord, error)
	DeleteByID(ctx context.Context, id uint) error
	DeleteByEmail(ctx context.Context, email string) error
}

type otpRepoImpl struct {
	db *gorm.DB
}

func NewOtpRepository(db *gorm.DB) OtpRepository {
	return &otpRepoImpl{
		db: db,
	}
}

func (r *otpRepoImpl) Replace(ctx context.Context, record *model.OtpRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", record.Email).Delete(&model.OtpRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

func (r *otpRepoImpl) FindLatest(ctx context.Context, email string) (*model.OtpRecord, error) {
	var record model.OtpRecord
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *otpRepoImpl) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.OtpRecord{}, id).Error
}

func (r *otpRepoImpl) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&model.OtpRecord{}).Error
}
