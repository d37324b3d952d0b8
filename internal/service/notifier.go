package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"storefront/internal/client"
	"storefront/internal/model"
	"storefront/internal/repository"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const deliveryTimeout = 30 * time.Second

type Notifier interface {
	// SendOrderConfirmation queues the confirmation email and returns immediately.
	// Delivery problems are logged and counted, never reported to the caller.
	SendOrderConfirmation(ctx context.Context, order *model.Order)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
}

type NotifierOptions struct {
	OTPTTL    time.Duration
	QueueSize int
	// BaseURL prefixes order links in confirmation emails.
	BaseURL string
}

// MailNotifier delivers order confirmations from a bounded queue drained by
// one background worker, and one-time passwords synchronously.
type MailNotifier struct {
	mailer   client.Mailer
	otpRepo  repository.OtpRepository
	otpTTL   time.Duration
	baseURL  string
	logger   *slog.Logger
	failures metric.Int64Counter
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan *model.Order
	wg     sync.WaitGroup
}

func NewMailNotifier(
	mailer client.Mailer,
	otpRepo repository.OtpRepository,
	opts NotifierOptions,
	logger *slog.Logger,
) *MailNotifier {
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 2 * time.Minute
	}

	failures, err := otel.Meter(instrumentationName).Int64Counter("storefront.notifications.failed",
		metric.WithDescription("Emails that could not be queued or delivered"))
	if err != nil {
		logger.Warn("create notification failure counter", "error", err)
	}

	return &MailNotifier{
		mailer:   mailer,
		otpRepo:  otpRepo,
		otpTTL:   opts.OTPTTL,
		baseURL:  opts.BaseURL,
		logger:   logger.With("component", "notifier"),
		failures: failures,
		now:      time.Now,
		queue:    make(chan *model.Order, opts.QueueSize),
	}
}

// Start runs the delivery worker until Close is called.
func (n *MailNotifier) Start() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for order := range n.queue {
			n.deliverOrderConfirmation(order)
		}
	}()
}

// Close stops accepting work and waits for queued emails to be delivered.
func (n *MailNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain notification queue: %w", ctx.Err())
	}
}

func (n *MailNotifier) SendOrderConfirmation(ctx context.Context, order *model.Order) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.recordFailure(ctx, "order_confirmation", "closed")
		n.logger.WarnContext(ctx, "notifier closed, order confirmation dropped", "order_id", order.ID)
		return
	}

	select {
	case n.queue <- order:
	default:
		n.recordFailure(ctx, "order_confirmation", "queue_full")
		n.logger.WarnContext(ctx, "notification queue full, order confirmation dropped", "order_id", order.ID)
	}
}

func (n *MailNotifier) deliverOrderConfirmation(order *model.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	email, err := orderConfirmationEmail(order, n.baseURL)
	if err != nil {
		n.recordFailure(ctx, "order_confirmation", "render")
		n.logger.ErrorContext(ctx, "render order confirmation", "order_id", order.ID, "error", err)
		return
	}

	if err := n.mailer.Send(ctx, email); err != nil {
		n.recordFailure(ctx, "order_confirmation", "send")
		n.logger.ErrorContext(ctx, "send order confirmation", "order_id", order.ID, "error", err)
		return
	}

	n.logger.InfoContext(ctx, "order confirmation sent", "order_id", order.ID)
}

func (n *MailNotifier) SendOTP(ctx context.Context, email string) error {
	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	record := &model.OtpRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: n.now().Add(n.otpTTL),
	}
	if err := n.otpRepo.Replace(ctx, record); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	msg, err := otpEmail(email, code, n.otpTTL)
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.recordFailure(ctx, "otp", "send")
		n.logger.ErrorContext(ctx, "send otp", "error", err)
		// an undelivered code must not stay redeemable
		if delErr := n.otpRepo.DeleteByID(ctx, record.ID); delErr != nil {
			n.logger.ErrorContext(ctx, "delete undelivered otp", "error", delErr)
		}
		return fmt.Errorf("%w: %v", ErrNotify, err)
	}

	n.logger.InfoContext(ctx, "otp sent", "expires_at", record.ExpiresAt)
	return nil
}

func (n *MailNotifier) VerifyOTP(ctx context.Context, email, code string) error {
	record, err := n.otpRepo.FindLatest(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOtpNotFound
		}
		return fmt.Errorf("find otp: %w", err)
	}

	if record.Expired(n.now()) {
		if err := n.otpRepo.DeleteByID(ctx, record.ID); err != nil {
			return fmt.Errorf("delete expired otp: %w", err)
		}
		return ErrOtpExpired
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return ErrOtpMismatch
	}

	if err := n.otpRepo.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

func (n *MailNotifier) recordFailure(ctx context.Context, kind, reason string) {
	if n.failures == nil {
		return
	}
	n.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
