package dto

import (
	"storefront/internal/model"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ListResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

type OrderListResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
	Data    []*model.Order `json:"data"`
}

type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerInfo  model.CustomerInfo  `json:"customerInfo"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
}

type GatewayCheckoutRequest struct {
	CustomerInfo model.CustomerInfo `json:"customerInfo"`
}

type GatewayConfirmRequest struct {
	CustomerInfo     model.CustomerInfo `json:"customerInfo"`
	GatewayOrderID   string             `json:"gatewayOrderId"`
	GatewayPaymentID string             `json:"gatewayPaymentId"`
	Signature        string             `json:"signature"`
}

type CreateOrderRequest struct {
	Items         []model.OrderItem   `json:"items"`
	Total         float64             `json:"total"`
	CustomerInfo  model.CustomerInfo  `json:"customerInfo"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
}

type ListOrdersQuery struct {
	Email  string `query:"email"`
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

type UpdateOrderStatusRequest struct {
	PaymentStatus *model.PaymentStatus `json:"paymentStatus"`
	OrderStatus   *model.OrderStatus   `json:"orderStatus"`
}

// CreatePaymentOrderRequest.Amount is in minor units.
type CreatePaymentOrderRequest struct {
	Amount int64 `json:"amount"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

type SendOtpRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}
