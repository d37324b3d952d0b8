package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/client"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockMailer records every email it is asked to send.
type MockMailer struct {
	mu   sync.Mutex
	sent []*client.Email
	Err  error
}

func (m *MockMailer) Send(_ context.Context, email *client.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *MockMailer) Sent() []*client.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*client.Email(nil), m.sent...)
}

// MockRazorpayClient returns Order or Err and captures the requested amount.
type MockRazorpayClient struct {
	Order         *model.GatewayOrder
	Err           error
	CalledAmount  int64
	CalledReceipt string
}

func (m *MockRazorpayClient) CreateOrder(_ context.Context, amount int64, receipt string) (*model.GatewayOrder, error) {
	m.CalledAmount = amount
	m.CalledReceipt = receipt
	if m.Err != nil {
		return nil, m.Err
	}
	order := *m.Order
	order.Amount = amount
	order.Receipt = receipt
	return &order, nil
}

// MockCartSession is an in-memory CartSession.
type MockCartSession struct {
	mu       sync.Mutex
	Device   string
	State    cart.State
	ClearErr error
}

func newMockCart(items ...cart.Item) *MockCartSession {
	m := &MockCartSession{Device: "device-1"}
	for _, item := range items {
		quantity := item.Quantity
		m.State.Add(item)
		m.State.UpdateQuantity(item.ProductID, max(quantity, 1))
	}
	return m
}

func (m *MockCartSession) DeviceID() string {
	return m.Device
}

func (m *MockCartSession) UpdateQuantity(productID string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State.UpdateQuantity(productID, quantity)
}

func (m *MockCartSession) Snapshot(_ context.Context) (cart.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State.Clone(), nil
}

func (m *MockCartSession) Clear(_ context.Context) (cart.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return cart.State{}, m.ClearErr
	}
	m.State.Clear()
	return m.State.Clone(), nil
}

type fixture struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	otpRepo     repository.OtpRepository
	userRepo    repository.UserRepository
	checkouts   repository.GatewayCheckoutRepository
	orders      OrderService
	mailer      *MockMailer
	notifier    *MailNotifier
}

// newFixture wires the services over a fresh sqlite database holding the seed
// catalog plus "widget" (100.00, in stock) and "retired" (out of stock).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:          db,
		orderRepo:   repository.NewOrderRepository(db),
		productRepo: repository.NewProductRepository(db),
		otpRepo:     repository.NewOtpRepository(db),
		userRepo:    repository.NewUserRepository(db),
		checkouts:   repository.NewGatewayCheckoutRepository(db),
		mailer:      &MockMailer{},
	}

	ctx := context.Background()
	require.NoError(t, f.productRepo.Seed(ctx))
	require.NoError(t, db.Create(&[]model.Product{
		{ID: "widget", Name: "Widget", Price: 100, Category: "parts", InStock: true, StockQuantity: 10},
		{ID: "retired", Name: "Retired Widget", Price: 50, Category: "parts", InStock: false},
	}).Error)

	f.orders = NewOrderService(f.orderRepo, f.productRepo, NewValidator(), discardLogger)
	f.notifier = NewMailNotifier(f.mailer, f.otpRepo, NotifierOptions{QueueSize: 8}, discardLogger)
	return f
}

func validCustomer() model.CustomerInfo {
	return model.CustomerInfo{
		Name:    "Asha Verma",
		Email:   "asha@example.com",
		Phone:   "+91 98765 43210",
		Address: "12 MG Road, Bengaluru",
	}
}

func widgetItem(quantity int) model.OrderItem {
	return model.OrderItem{ProductID: "widget", Name: "Widget", UnitPrice: 100, Quantity: quantity, Category: "parts"}
}
