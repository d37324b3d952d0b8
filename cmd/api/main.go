package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/service"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDatabase(cfg.Database)
	if err != nil {
		return err
	}

	rdb, err := client.InitRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	mailer, err := client.NewMailer(&cfg.SMTP, log)
	if err != nil {
		return err
	}
	razorpayClient := client.NewRazorpayClient(&cfg.Razorpay, log)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	checkoutRepo := repository.NewGatewayCheckoutRepository(db)

	if err := productRepo.Seed(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	cartManager := cart.NewManager(cart.NewRedisStore(rdb, cfg.Cart.StorageTTL), log, cfg.Cart.IdleTimeout, cfg.Cart.MaxSessions)
	go cartManager.Run(ctx)

	notifier := service.NewMailNotifier(mailer, otpRepo, service.NotifierOptions{
		OTPTTL:    cfg.OTP.TTL,
		QueueSize: cfg.Notifier.QueueSize,
		BaseURL:   cfg.BaseURL,
	}, log)
	notifier.Start()

	validate := service.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, validate, log)
	paymentService := service.NewPaymentService(razorpayClient, cfg.Razorpay.KeySecret, log)
	cartService := service.NewCartService(cartManager, productService)

	srv := server.NewServer(server.Services{
		Product:  productService,
		Cart:     cartService,
		Checkout: service.NewCheckoutService(orderService, paymentService, checkoutRepo, notifier, log),
		Order:    orderService,
		Payment:  paymentService,
		Auth:     service.NewAuthService(userRepo, notifier, tokens, validate, log),
	}, tokens, server.Options{
		OTPRate:  cfg.OTP.RateLimit,
		OTPBurst: cfg.OTP.Burst,
	}, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	serverErr := make(chan error, 1)

	log.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("signal received, starting graceful shutdown")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if err := cartManager.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("flush carts: %w", err))
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
