package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckout(t *testing.T) (*fixture, CheckoutService, *MockRazorpayClient) {
	f := newFixture(t)
	gateway := &MockRazorpayClient{Order: &model.GatewayOrder{ID: "order_Q1", Entity: "order", Currency: "INR", Status: "created"}}
	payments := NewPaymentService(gateway, testKeySecret, discardLogger)

	f.notifier.Start()
	t.Cleanup(func() { f.notifier.Close(context.Background()) })

	return f, NewCheckoutService(f.orders, payments, f.checkouts, f.notifier, discardLogger), gateway
}

// openGatewayCheckout begins a gateway checkout for session under the given gateway order id.
func openGatewayCheckout(t *testing.T, checkout CheckoutService, gateway *MockRazorpayClient, session CartSession, gatewayOrderID string) *model.GatewayOrder {
	t.Helper()
	gateway.Order.ID = gatewayOrderID
	order, err := checkout.BeginGatewayCheckout(context.Background(), session, validCustomer())
	require.NoError(t, err)
	return order
}

func widgetCart(quantity int) *MockCartSession {
	return newMockCart(cart.Item{ProductID: "widget", Name: "Widget", UnitPrice: 100, Category: "parts", Quantity: quantity})
}

func countOrders(t *testing.T, f *fixture) int64 {
	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestPlaceOrder(t *testing.T) {
	f, checkout, _ := newCheckout(t)
	session := widgetCart(2)

	order, err := checkout.PlaceOrder(context.Background(), session, CheckoutInput{
		CustomerInfo:  validCustomer(),
		PaymentMethod: model.PaymentMethodUPI,
	})
	require.NoError(t, err)

	assert.Equal(t, 200.0, order.TotalAmount)
	assert.Equal(t, model.PaymentMethodUPI, order.PaymentMethod)
	assert.Equal(t, model.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, model.OrderStatusProcessing, order.OrderStatus)
	assert.True(t, session.State.IsEmpty(), "cart cleared after checkout")

	require.NoError(t, f.notifier.Close(context.Background()))
	require.Len(t, f.mailer.Sent(), 1)
	assert.Equal(t, "asha@example.com", f.mailer.Sent()[0].To)
}

func TestPlaceOrder_Preconditions(t *testing.T) {
	f, checkout, _ := newCheckout(t)
	ctx := context.Background()

	_, err := checkout.PlaceOrder(ctx, newMockCart(), CheckoutInput{CustomerInfo: validCustomer(), PaymentMethod: model.PaymentMethodUPI})
	assert.ErrorIs(t, err, ErrEmptyCart)

	for _, strip := range []func(*model.CustomerInfo){
		func(c *model.CustomerInfo) { c.Name = "" },
		func(c *model.CustomerInfo) { c.Email = "  " },
		func(c *model.CustomerInfo) { c.Phone = "" },
	} {
		info := validCustomer()
		strip(&info)
		session := widgetCart(1)

		_, err := checkout.PlaceOrder(ctx, session, CheckoutInput{CustomerInfo: info, PaymentMethod: model.PaymentMethodCardOrDebit})
		assert.ErrorIs(t, err, ErrMissingCustomerInfo)
		assert.Len(t, session.State.Items, 1)
	}

	_, err = checkout.PlaceOrder(ctx, widgetCart(1), CheckoutInput{CustomerInfo: validCustomer(), PaymentMethod: model.PaymentMethodRazorpay})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Zero(t, countOrders(t, f))
}

func TestPlaceOrder_FailureLeavesCartUntouched(t *testing.T) {
	f, checkout, _ := newCheckout(t)
	session := newMockCart(
		cart.Item{ProductID: "widget", Name: "Widget", UnitPrice: 100, Quantity: 1},
		cart.Item{ProductID: "retired", Name: "Retired Widget", UnitPrice: 50, Quantity: 1},
	)
	before := session.State.Clone()

	_, err := checkout.PlaceOrder(context.Background(), session, CheckoutInput{
		CustomerInfo:  validCustomer(),
		PaymentMethod: model.PaymentMethodUPI,
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Equal(t, before, session.State.Clone())
	assert.Zero(t, countOrders(t, f))
}

func TestPlaceOrder_ClearFailureStillReturnsOrder(t *testing.T) {
	f, checkout, _ := newCheckout(t)
	session := widgetCart(1)
	session.ClearErr = errors.New("redis down")

	order, err := checkout.PlaceOrder(context.Background(), session, CheckoutInput{
		CustomerInfo:  validCustomer(),
		PaymentMethod: model.PaymentMethodCardOrDebit,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.EqualValues(t, 1, countOrders(t, f))
}

func TestBeginGatewayCheckout(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	session := newMockCart(
		cart.Item{ProductID: "arduino-uno-r3", Name: "Arduino Uno R3", UnitPrice: 749, Quantity: 2},
		cart.Item{ProductID: "esp32-devkit", Name: "ESP32 DevKit V1", UnitPrice: 499.99, Quantity: 1},
	)

	order, err := checkout.BeginGatewayCheckout(context.Background(), session, validCustomer())
	require.NoError(t, err)
	assert.Equal(t, "order_Q1", order.ID)
	assert.EqualValues(t, 199799, gateway.CalledAmount)
	assert.Len(t, session.State.Items, 2, "cart kept until payment is confirmed")

	stored, err := f.checkouts.FindByGatewayOrderID(context.Background(), "order_Q1")
	require.NoError(t, err)
	assert.Equal(t, "device-1", stored.DeviceID)
	assert.EqualValues(t, 199799, stored.Amount)
	assert.Equal(t, model.GatewayCheckoutPending, stored.Status)
	assert.Len(t, stored.Items, 2)

	gateway.Err = errors.New("503 from gateway")
	_, err = checkout.BeginGatewayCheckout(context.Background(), session, validCustomer())
	assert.ErrorIs(t, err, ErrGateway)

	_, err = checkout.BeginGatewayCheckout(context.Background(), newMockCart(), validCustomer())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestConfirmGatewayCheckout(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	session := widgetCart(3)
	openGatewayCheckout(t, checkout, gateway, session, "order_Q1")

	order, err := checkout.ConfirmGatewayCheckout(context.Background(), session, GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      signed("order_Q1", "pay_Q1"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentMethodRazorpay, order.PaymentMethod)
	assert.Equal(t, model.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, 300.0, order.TotalAmount)
	require.NotNil(t, order.GatewayPaymentID)
	assert.Equal(t, "pay_Q1", *order.GatewayPaymentID)
	assert.Equal(t, "order_Q1", *order.GatewayOrderID)
	assert.True(t, session.State.IsEmpty())
	assert.EqualValues(t, 1, countOrders(t, f))

	stored, err := f.checkouts.FindByGatewayOrderID(context.Background(), "order_Q1")
	require.NoError(t, err)
	assert.Equal(t, model.GatewayCheckoutPaid, stored.Status)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, order.ID, *stored.OrderID)
}

func TestConfirmGatewayCheckout_UsesAmountPaid(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	session := widgetCart(1)
	gatewayOrder := openGatewayCheckout(t, checkout, gateway, session, "order_Q1")
	require.EqualValues(t, 10000, gatewayOrder.Amount)

	// the cart grows after the gateway order was opened for 100.00
	session.UpdateQuantity("widget", 50)

	order, err := checkout.ConfirmGatewayCheckout(context.Background(), session, GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      signed("order_Q1", "pay_Q1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.EqualValues(t, 1, countOrders(t, f))
}

func TestConfirmGatewayCheckout_RejectsUnboundGatewayOrders(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	ctx := context.Background()

	// a gateway order created outside checkout, e.g. through POST /payments/create-order
	_, err := checkout.ConfirmGatewayCheckout(ctx, widgetCart(1), GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      signed("order_elsewhere", "pay_Q1"),
	})
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)

	// a gateway order opened by another device
	openGatewayCheckout(t, checkout, gateway, widgetCart(1), "order_Q1")
	other := widgetCart(50)
	other.Device = "device-2"
	_, err = checkout.ConfirmGatewayCheckout(ctx, other, GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      signed("order_Q1", "pay_Q1"),
	})
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
	assert.Len(t, other.State.Items, 1)

	// a second payment against an already settled gateway order
	_, err = checkout.ConfirmGatewayCheckout(ctx, widgetCart(1), GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      signed("order_Q1", "pay_Q1"),
	})
	require.NoError(t, err)
	_, err = checkout.ConfirmGatewayCheckout(ctx, widgetCart(1), GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      signed("order_Q1", "pay_Q2"),
	})
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)

	assert.EqualValues(t, 1, countOrders(t, f))
}

func TestConfirmGatewayCheckout_BadSignature(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	session := widgetCart(1)
	openGatewayCheckout(t, checkout, gateway, session, "order_Q1")

	confirmation := signed("order_Q1", "pay_Q1")
	confirmation.Signature = flipBit(confirmation.Signature, 3)

	_, err := checkout.ConfirmGatewayCheckout(context.Background(), session, GatewayConfirmation{
		CustomerInfo: validCustomer(),
		Payment:      confirmation,
	})
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
	assert.Len(t, session.State.Items, 1)
	assert.Zero(t, countOrders(t, f))
}

func TestConfirmGatewayCheckout_Idempotent(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	ctx := context.Background()
	openGatewayCheckout(t, checkout, gateway, widgetCart(1), "order_Q1")
	confirmation := GatewayConfirmation{CustomerInfo: validCustomer(), Payment: signed("order_Q1", "pay_Q1")}

	first, err := checkout.ConfirmGatewayCheckout(ctx, widgetCart(1), confirmation)
	require.NoError(t, err)

	// the cart is already empty on a retry; the recorded order comes back
	second, err := checkout.ConfirmGatewayCheckout(ctx, newMockCart(), confirmation)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, countOrders(t, f))
}

func TestConfirmGatewayCheckout_ConcurrentDuplicates(t *testing.T) {
	f, checkout, gateway := newCheckout(t)
	openGatewayCheckout(t, checkout, gateway, widgetCart(1), "order_Q2")
	confirmation := GatewayConfirmation{CustomerInfo: validCustomer(), Payment: signed("order_Q2", "pay_Q2")}

	var wg sync.WaitGroup
	ids := make([]string, 4)
	errs := make([]error, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := checkout.ConfirmGatewayCheckout(context.Background(), widgetCart(1), confirmation)
			errs[i] = err
			if err == nil {
				ids[i] = order.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.EqualValues(t, 1, countOrders(t, f))
}
