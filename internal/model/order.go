package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCardOrDebit PaymentMethod = "CardOrDebit"
	PaymentMethodUPI         PaymentMethod = "UPI"
	PaymentMethodRazorpay    PaymentMethod = "Razorpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCardOrDebit, PaymentMethodUPI, PaymentMethodRazorpay:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type CustomerInfo struct {
	Name    string `gorm:"size:50;not null" json:"name" validate:"required,max=50"`
	Email   string `gorm:"size:254;index;not null" json:"email" validate:"required,email"`
	Phone   string `gorm:"size:32;not null" json:"phone" validate:"required,phone"`
	Address string `gorm:"size:200" json:"address,omitempty" validate:"omitempty,max=200"`
}

type Order struct {
	ID            string        `gorm:"primaryKey;size:36;not null" json:"id"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items"`
	TotalAmount   float64       `gorm:"not null" json:"totalAmount"`
	CustomerInfo  CustomerInfo  `gorm:"embedded;embeddedPrefix:customer_" json:"customerInfo"`
	PaymentMethod PaymentMethod `gorm:"size:16;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"size:16;index;not null" json:"paymentStatus"`
	OrderStatus   OrderStatus   `gorm:"size:16;index;not null" json:"orderStatus"`

	// set only for orders confirmed through the payment gateway
	GatewayOrderID   *string `gorm:"size:64" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID *string `gorm:"size:64;uniqueIndex" json:"gatewayPaymentId,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem is a copy of the cart line at checkout time, not a reference to the catalog.
type OrderItem struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// FK → orders.id
	OrderID   string  `gorm:"size:36;index;not null" json:"-"`
	ProductID string  `gorm:"size:64;index;not null" json:"productId"`
	Name      string  `gorm:"size:128;not null" json:"name"`
	UnitPrice float64 `gorm:"not null" json:"unitPrice"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Image     string  `gorm:"size:256" json:"image"`
	Category  string  `gorm:"size:64" json:"category"`
}
