package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const instrumentationName = "storefront/internal/service"

var tracer = otel.Tracer(instrumentationName)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type CreateOrderInput struct {
	Items         []model.OrderItem
	Total         float64
	CustomerInfo  model.CustomerInfo
	PaymentMethod model.PaymentMethod

	// set only when the payment was verified with the gateway
	GatewayOrderID   string
	GatewayPaymentID string
}

type ListOrdersInput struct {
	Email  string
	Status model.PaymentStatus
	Page   int
	Limit  int
}

type OrderPage struct {
	Orders []*model.Order
	Total  int64
	Page   int
	Pages  int
	Limit  int
}

// StatusChange applies only the fields that are set.
type StatusChange struct {
	PaymentStatus *model.PaymentStatus
	OrderStatus   *model.OrderStatus
}

type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderPage, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderByGatewayPayment(ctx context.Context, paymentID string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, change StatusChange) (*model.Order, error)
}

type orderServiceImpl struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	validate      *validator.Validate
	logger        *slog.Logger
	ordersCreated metric.Int64Counter
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	validate *validator.Validate,
	logger *slog.Logger,
) OrderService {
	counter, err := otel.Meter(instrumentationName).Int64Counter("storefront.orders.created",
		metric.WithDescription("Orders persisted, by payment method"))
	if err != nil {
		logger.Warn("create orders counter", "error", err)
	}

	return &orderServiceImpl{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		validate:      validate,
		logger:        logger.With("component", "orders"),
		ordersCreated: counter,
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.Int("order.items", len(input.Items)),
		attribute.String("order.payment_method", string(input.PaymentMethod)),
	))
	defer span.End()

	input.CustomerInfo.Email = normalizeEmail(input.CustomerInfo.Email)
	total, err := s.validateOrder(input)
	if err != nil {
		return nil, err
	}

	if err := s.checkAvailability(ctx, input.Items); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, len(input.Items))
	for i, item := range input.Items {
		items[i] = model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Category:  item.Category,
		}
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		Items:         items,
		TotalAmount:   total.InexactFloat64(),
		CustomerInfo:  input.CustomerInfo,
		PaymentMethod: input.PaymentMethod,
		// card/UPI payments are simulated and treated as captured at creation
		PaymentStatus: model.PaymentStatusCompleted,
		OrderStatus:   model.OrderStatusProcessing,
	}
	if input.GatewayPaymentID != "" {
		order.GatewayOrderID = &input.GatewayOrderID
		order.GatewayPaymentID = &input.GatewayPaymentID
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateGatewayPayment
		}
		span.RecordError(err)
		return nil, fmt.Errorf("store order in db: %w", err)
	}

	if s.ordersCreated != nil {
		s.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod))))
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"total", order.TotalAmount,
		"payment_method", order.PaymentMethod,
	)

	return order, nil
}

// validateOrder checks every field and returns the decimal sum of the item subtotals.
func (s *orderServiceImpl) validateOrder(input CreateOrderInput) (decimal.Decimal, error) {
	verr := &ValidationError{}

	if len(input.Items) == 0 {
		verr.Add("items", "must contain at least one item")
	}
	itemsValid := true
	for i, item := range input.Items {
		if item.ProductID == "" {
			verr.Add(fmt.Sprintf("items[%d].productId", i), "is required")
			itemsValid = false
		}
		if item.Quantity < 1 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
			itemsValid = false
		}
		if item.UnitPrice < 0 {
			verr.Add(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
			itemsValid = false
		}
	}

	sum := subtotal(input.Items)
	switch {
	case input.Total < 0:
		verr.Add("total", "must not be negative")
	case itemsValid && len(input.Items) > 0 && !decimal.NewFromFloat(input.Total).Round(2).Equal(sum):
		verr.Add("total", fmt.Sprintf("does not match the sum of item subtotals (%s)", sum.StringFixed(2)))
	}

	switch {
	case !input.PaymentMethod.Valid():
		verr.Add("paymentMethod", "must be one of CardOrDebit, UPI, Razorpay")
	case input.PaymentMethod == model.PaymentMethodRazorpay && input.GatewayPaymentID == "":
		verr.Add("paymentMethod", "Razorpay payments must be confirmed through the payment gateway")
	}

	validateStruct(s.validate, "customerInfo", input.CustomerInfo, verr)

	return sum, verr.OrNil()
}

func (s *orderServiceImpl) checkAvailability(ctx context.Context, items []model.OrderItem) error {
	productIDs := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("get many products by item ids: %w", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return &ProductUnavailableError{ProductID: item.ProductID, Name: item.Name}
		}
		if !product.InStock {
			return &ProductUnavailableError{ProductID: product.ID, Name: product.Name}
		}
	}
	return nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if input.Status != "" && !validPaymentStatus(input.Status) {
		verr := &ValidationError{}
		verr.Add("status", "must be one of pending, completed, failed")
		return nil, verr
	}

	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{
		Email:         normalizeEmail(input.Email),
		PaymentStatus: input.Status,
		Offset:        (page - 1) * limit,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &OrderPage{
		Orders: orders,
		Total:  total,
		Page:   page,
		Pages:  int((total + int64(limit) - 1) / int64(limit)),
		Limit:  limit,
	}, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) GetOrderByGatewayPayment(ctx context.Context, paymentID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order for payment %s: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("find order by gateway payment: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderID string, change StatusChange) (*model.Order, error) {
	verr := &ValidationError{}
	if change.PaymentStatus == nil && change.OrderStatus == nil {
		verr.Add("status", "one of paymentStatus or orderStatus is required")
	}
	if change.PaymentStatus != nil && !validPaymentStatus(*change.PaymentStatus) {
		verr.Add("paymentStatus", "must be one of pending, completed, failed")
	}
	if change.OrderStatus != nil && !validOrderStatus(*change.OrderStatus) {
		verr.Add("orderStatus", "must be one of processing, shipped, delivered, cancelled")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	update := repository.StatusUpdate{
		FromPayment: current.PaymentStatus,
		FromOrder:   current.OrderStatus,
		ToPayment:   current.PaymentStatus,
		ToOrder:     current.OrderStatus,
	}
	if change.PaymentStatus != nil {
		if !canTransition(paymentTransitions, current.PaymentStatus, *change.PaymentStatus) {
			return nil, fmt.Errorf("%w: paymentStatus %s -> %s", ErrIllegalTransition, current.PaymentStatus, *change.PaymentStatus)
		}
		update.ToPayment = *change.PaymentStatus
	}
	if change.OrderStatus != nil {
		if !canTransition(orderTransitions, current.OrderStatus, *change.OrderStatus) {
			return nil, fmt.Errorf("%w: orderStatus %s -> %s", ErrIllegalTransition, current.OrderStatus, *change.OrderStatus)
		}
		update.ToOrder = *change.OrderStatus
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, update)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, fmt.Errorf("%w: %v", ErrIllegalTransition, err)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order status updated",
		"order_id", orderID,
		"payment_status", order.PaymentStatus,
		"order_status", order.OrderStatus,
	)
	return order, nil
}

func subtotal(items []model.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum.Round(2)
}
