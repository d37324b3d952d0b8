package model

import "time"

// GatewayOrder is the handle returned by the payment gateway for a pending payment.
type GatewayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	KeyID    string `json:"keyId,omitempty"`
}

type RazorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type GatewayCheckoutStatus string

const (
	GatewayCheckoutPending GatewayCheckoutStatus = "pending"
	GatewayCheckoutPaid    GatewayCheckoutStatus = "paid"
)

// GatewayCheckout pins a gateway order to the cart snapshot and amount it was opened for.
type GatewayCheckout struct {
	GatewayOrderID string                `gorm:"primaryKey;size:64;not null"`
	DeviceID       string                `gorm:"size:128;index;not null"`
	Amount         int64                 `gorm:"not null"` // minor units
	Currency       string                `gorm:"size:8"`
	Items          []OrderItem           `gorm:"type:text;serializer:json;not null"`
	Status         GatewayCheckoutStatus `gorm:"size:16;not null"`
	OrderID        *string               `gorm:"size:36"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
