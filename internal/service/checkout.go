package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/repository"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// CartSession is the slice of a cart session checkout needs.
type CartSession interface {
	DeviceID() string
	Snapshot(ctx context.Context) (cart.State, error)
	Clear(ctx context.Context) (cart.State, error)
}

type CheckoutInput struct {
	CustomerInfo  model.CustomerInfo
	PaymentMethod model.PaymentMethod
}

type GatewayConfirmation struct {
	CustomerInfo model.CustomerInfo
	Payment      PaymentConfirmation
}

type CheckoutService interface {
	// PlaceOrder checks out the cart with a simulated card or UPI payment.
	PlaceOrder(ctx context.Context, session CartSession, input CheckoutInput) (*model.Order, error)
	// BeginGatewayCheckout opens a gateway payment for the cart total.
	BeginGatewayCheckout(ctx context.Context, session CartSession, info model.CustomerInfo) (*model.GatewayOrder, error)
	// ConfirmGatewayCheckout turns a verified gateway payment into an order built from
	// the cart snapshot the gateway order was opened for.
	// Confirming the same payment twice returns the order created the first time.
	ConfirmGatewayCheckout(ctx context.Context, session CartSession, input GatewayConfirmation) (*model.Order, error)
}

type checkoutServiceImpl struct {
	orderService   OrderService
	paymentService PaymentService
	checkoutRepo   repository.GatewayCheckoutRepository
	notifier       Notifier
	logger         *slog.Logger
}

func NewCheckoutService(
	orderService OrderService,
	paymentService PaymentService,
	checkoutRepo repository.GatewayCheckoutRepository,
	notifier Notifier,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		orderService:   orderService,
		paymentService: paymentService,
		checkoutRepo:   checkoutRepo,
		notifier:       notifier,
		logger:         logger.With("component", "checkout"),
	}
}

func (s *checkoutServiceImpl) PlaceOrder(ctx context.Context, session CartSession, input CheckoutInput) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.PlaceOrder", trace.WithAttributes(
		attribute.String("checkout.payment_method", string(input.PaymentMethod)),
	))
	defer span.End()

	if input.PaymentMethod == model.PaymentMethodRazorpay {
		verr := &ValidationError{}
		verr.Add("paymentMethod", "Razorpay payments must go through the gateway checkout")
		return nil, verr
	}

	state, err := s.preflight(ctx, session, input.CustomerInfo)
	if err != nil {
		return nil, err
	}

	order, err := s.orderService.CreateOrder(ctx, CreateOrderInput{
		Items:         orderItems(state),
		Total:         state.Total,
		CustomerInfo:  input.CustomerInfo,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order")
		return nil, err
	}

	s.complete(ctx, session, order)
	return order, nil
}

func (s *checkoutServiceImpl) BeginGatewayCheckout(ctx context.Context, session CartSession, info model.CustomerInfo) (*model.GatewayOrder, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.BeginGatewayCheckout")
	defer span.End()

	state, err := s.preflight(ctx, session, info)
	if err != nil {
		return nil, err
	}

	amount := MinorUnits(state.Total)
	gatewayOrder, err := s.paymentService.CreateGatewayOrder(ctx, amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create gateway order")
		return nil, err
	}
	if gatewayOrder.Amount != amount {
		return nil, fmt.Errorf("%w: gateway order %s opened for %d, cart total is %d", ErrGateway, gatewayOrder.ID, gatewayOrder.Amount, amount)
	}

	err = s.checkoutRepo.Create(ctx, &model.GatewayCheckout{
		GatewayOrderID: gatewayOrder.ID,
		DeviceID:       session.DeviceID(),
		Amount:         amount,
		Currency:       gatewayOrder.Currency,
		Items:          orderItems(state),
		Status:         model.GatewayCheckoutPending,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store gateway checkout: %w", err)
	}

	span.SetAttributes(attribute.String("checkout.gateway_order_id", gatewayOrder.ID))
	return gatewayOrder, nil
}

func (s *checkoutServiceImpl) ConfirmGatewayCheckout(ctx context.Context, session CartSession, input GatewayConfirmation) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.ConfirmGatewayCheckout", trace.WithAttributes(
		attribute.String("checkout.gateway_order_id", input.Payment.OrderID),
	))
	defer span.End()

	if !s.paymentService.Verify(input.Payment) {
		span.SetStatus(codes.Error, "signature mismatch")
		s.logger.WarnContext(ctx, "gateway payment signature mismatch",
			"gateway_order_id", input.Payment.OrderID,
			"gateway_payment_id", input.Payment.PaymentID,
		)
		return nil, ErrPaymentVerificationFailed
	}

	existing, err := s.orderService.GetOrderByGatewayPayment(ctx, input.Payment.PaymentID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	pending, err := s.pendingCheckout(ctx, session, input.Payment)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		// settled by a concurrent confirmation of this payment
		return s.orderService.GetOrderByGatewayPayment(ctx, input.Payment.PaymentID)
	}
	if err := checkCustomerInfo(input.CustomerInfo); err != nil {
		return nil, err
	}

	order, err := s.orderService.CreateOrder(ctx, CreateOrderInput{
		Items:            pending.Items,
		Total:            decimal.NewFromInt(pending.Amount).Shift(-2).InexactFloat64(),
		CustomerInfo:     input.CustomerInfo,
		PaymentMethod:    model.PaymentMethodRazorpay,
		GatewayOrderID:   input.Payment.OrderID,
		GatewayPaymentID: input.Payment.PaymentID,
	})
	if errors.Is(err, ErrDuplicateGatewayPayment) {
		// a concurrent confirmation of the same payment won the insert
		return s.orderService.GetOrderByGatewayPayment(ctx, input.Payment.PaymentID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order")
		return nil, err
	}

	if err := s.checkoutRepo.MarkPaid(ctx, pending.GatewayOrderID, order.ID); err != nil {
		s.logger.ErrorContext(ctx, "mark gateway checkout paid",
			"gateway_order_id", pending.GatewayOrderID,
			"order_id", order.ID,
			"error", err,
		)
	}

	s.complete(ctx, session, order)
	return order, nil
}

// pendingCheckout loads the checkout opened for the gateway order and checks that it
// belongs to this cart and still matches the amount that was paid. It returns nil when
// the checkout has already been settled.
func (s *checkoutServiceImpl) pendingCheckout(ctx context.Context, session CartSession, payment PaymentConfirmation) (*model.GatewayCheckout, error) {
	pending, err := s.checkoutRepo.FindByGatewayOrderID(ctx, payment.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no checkout was opened for gateway order %s", ErrPaymentVerificationFailed, payment.OrderID)
		}
		return nil, fmt.Errorf("find gateway checkout: %w", err)
	}

	if pending.DeviceID != session.DeviceID() {
		return nil, fmt.Errorf("%w: gateway order %s belongs to another cart", ErrPaymentVerificationFailed, payment.OrderID)
	}
	if len(pending.Items) == 0 || MinorUnits(subtotal(pending.Items).InexactFloat64()) != pending.Amount {
		return nil, fmt.Errorf("%w: gateway order %s does not match its cart snapshot", ErrPaymentVerificationFailed, payment.OrderID)
	}
	if pending.Status != model.GatewayCheckoutPending {
		if _, err := s.orderService.GetOrderByGatewayPayment(ctx, payment.PaymentID); err == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: gateway order %s was already paid", ErrPaymentVerificationFailed, payment.OrderID)
	}
	return pending, nil
}

// preflight loads the cart and checks the preconditions shared by every checkout path.
func (s *checkoutServiceImpl) preflight(ctx context.Context, session CartSession, info model.CustomerInfo) (cart.State, error) {
	state, err := session.Snapshot(ctx)
	if err != nil {
		return cart.State{}, fmt.Errorf("load cart: %w", err)
	}
	if state.IsEmpty() {
		return cart.State{}, ErrEmptyCart
	}
	if err := checkCustomerInfo(info); err != nil {
		return cart.State{}, err
	}
	return state, nil
}

func checkCustomerInfo(info model.CustomerInfo) error {
	if strings.TrimSpace(info.Name) == "" || strings.TrimSpace(info.Email) == "" || strings.TrimSpace(info.Phone) == "" {
		return ErrMissingCustomerInfo
	}
	return nil
}

// complete runs the post-commit steps. Neither can undo the order.
func (s *checkoutServiceImpl) complete(ctx context.Context, session CartSession, order *model.Order) {
	s.notifier.SendOrderConfirmation(ctx, order)

	if _, err := session.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "clear cart after checkout", "order_id", order.ID, "error", err)
	}
}

func orderItems(state cart.State) []model.OrderItem {
	items := make([]model.OrderItem, len(state.Items))
	for i, item := range state.Items {
		items[i] = model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Category:  item.Category,
		}
	}
	return items
}
