package repository

import (
	"context"
	"storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	List(ctx context.Context, category string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "arduino-uno-r3", Name: "Arduino Uno R3", Description: "ATmega328P development board", Price: 749, Category: "boards", Image: "/images/arduino-uno.png", InStock: true, StockQuantity: 120},
		{ID: "esp32-devkit", Name: "ESP32 DevKit V1", Description: "Wi-Fi and Bluetooth microcontroller", Price: 499, Category: "boards", Image: "/images/esp32.png", InStock: true, StockQuantity: 80},
		{ID: "raspberry-pi-5", Name: "Raspberry Pi 5 (4GB)", Description: "Single board computer", Price: 5299, Category: "boards", Image: "/images/rpi5.png", InStock: false, StockQuantity: 0},
		{ID: "sensor-kit-37", Name: "37-in-1 Sensor Kit", Description: "Assorted sensor modules", Price: 1299, Category: "kits", Image: "/images/sensor-kit.png", InStock: true, StockQuantity: 45},
		{ID: "course-iot-basics", Name: "IoT Basics Course", Description: "Eight week online course with kit", Price: 2999, Category: "courses", Image: "/images/iot-course.png", InStock: true, StockQuantity: 500},
		{ID: "course-robotics", Name: "Robotics for Beginners", Description: "Weekend robotics workshop", Price: 3499, Category: "courses", Image: "/images/robotics-course.png", InStock: true, StockQuantity: 30},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context, category string) ([]*model.Product, error) {
	query := r.db.WithContext(ctx).Order("category").Order("name")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var products []*model.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}
