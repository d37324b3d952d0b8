package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrEmptyCart                 = errors.New("cart is empty, nothing to checkout")
	ErrMissingCustomerInfo       = errors.New("customer name, email and phone are required")
	ErrProductUnavailable        = errors.New("product unavailable")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrIllegalTransition         = errors.New("illegal order status transition")
	ErrGateway                   = errors.New("payment gateway error")
	ErrNotify                    = errors.New("notification delivery failed")
	ErrOtpNotFound               = errors.New("no OTP found for this email, request a new one")
	ErrOtpExpired                = errors.New("OTP has expired, request a new one")
	ErrOtpMismatch               = errors.New("invalid OTP")
	ErrUserExists                = errors.New("user already exists")
	ErrInvalidCredentials        = errors.New("invalid email or password")
	ErrDuplicateGatewayPayment   = errors.New("gateway payment already recorded")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed, so callers can return it unconditionally.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

type ProductUnavailableError struct {
	ProductID string
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("product %q (%s) is unavailable", e.Name, e.ProductID)
	}
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}
