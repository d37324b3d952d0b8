package model

import "time"

type Product struct {
	ID            string  `gorm:"primaryKey;size:64;not null" json:"id"` // product sku
	Name          string  `gorm:"size:128;not null" json:"name"`
	Description   string  `gorm:"size:512" json:"description"`
	Price         float64 `gorm:"not null" json:"price"`
	Category      string  `gorm:"size:64;index;not null" json:"category"`
	Image         string  `gorm:"size:256" json:"image"`
	InStock       bool    `gorm:"not null" json:"inStock"`
	StockQuantity int     `gorm:"not null" json:"stockQuantity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
