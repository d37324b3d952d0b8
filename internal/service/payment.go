package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"storefront/internal/client"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PaymentConfirmation is what the gateway checkout widget hands back after a successful payment.
type PaymentConfirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}

type PaymentService interface {
	// CreateGatewayOrder registers a pending payment with the gateway. amount is in minor units (paise).
	CreateGatewayOrder(ctx context.Context, amount int64) (*model.GatewayOrder, error)
	// Verify reports whether the confirmation was signed with the gateway key secret.
	Verify(confirmation PaymentConfirmation) bool
}

type paymentServiceImpl struct {
	razorpayClient client.RazorpayClient
	keySecret      []byte
	logger         *slog.Logger
}

func NewPaymentService(
	razorpayClient client.RazorpayClient,
	keySecret string,
	logger *slog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		razorpayClient: razorpayClient,
		keySecret:      []byte(keySecret),
		logger:         logger.With("component", "payments"),
	}
}

func (s *paymentServiceImpl) CreateGatewayOrder(ctx context.Context, amount int64) (*model.GatewayOrder, error) {
	if amount <= 0 {
		verr := &ValidationError{}
		verr.Add("amount", "must be greater than zero")
		return nil, verr
	}

	receipt := "rcpt_" + uuid.NewString()[:8]

	ctx, span := tracer.Start(ctx, "PaymentService.CreateGatewayOrder", trace.WithAttributes(
		attribute.Int64("payment.amount_minor", amount),
		attribute.String("payment.receipt", receipt),
	))
	defer span.End()

	order, err := s.razorpayClient.CreateOrder(ctx, amount, receipt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create gateway order")
		s.logger.ErrorContext(ctx, "create gateway order", "receipt", receipt, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.logger.InfoContext(ctx, "gateway order created", "gateway_order_id", order.ID, "amount", order.Amount)
	return order, nil
}

func (s *paymentServiceImpl) Verify(confirmation PaymentConfirmation) bool {
	if confirmation.OrderID == "" || confirmation.PaymentID == "" || confirmation.Signature == "" {
		return false
	}
	return VerifySignature(s.keySecret, confirmation.OrderID, confirmation.PaymentID, confirmation.Signature)
}

// VerifySignature checks a hex HMAC-SHA256 of "orderID|paymentID" in constant time.
// The comparison is case sensitive.
func VerifySignature(secret []byte, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign returns the lowercase hex signature the gateway produces for a payment.
func Sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// MinorUnits converts a major-unit amount to the gateway's integer minor units.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}
