package server

import (
	"context"
	"log/slog"
	"net/http"
	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Services struct {
	Product  service.ProductService
	Cart     service.CartService
	Checkout service.CheckoutService
	Order    service.OrderService
	Payment  service.PaymentService
	Auth     service.AuthService
}

type Options struct {
	// OTPRate is the sustained number of /otp requests allowed per client IP per second.
	OTPRate  float64
	OTPBurst int
}

type Server struct {
	echo            *echo.Echo
	logger          *slog.Logger
	tokens          *auth.TokenManager
	opts            Options
	productHandler  *handler.ProductHandler
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	paymentHandler  *handler.PaymentHandler
	authHandler     *handler.AuthHandler
}

func NewServer(services Services, tokens *auth.TokenManager, opts Options, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = &strictBinder{}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-Device-Id",
		},
	}))

	s := &Server{
		echo:            e,
		logger:          logger,
		tokens:          tokens,
		opts:            opts,
		productHandler:  handler.NewProductHandler(services.Product),
		cartHandler:     handler.NewCartHandler(services.Cart),
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout, services.Cart),
		orderHandler:    handler.NewOrderHandler(services.Order),
		paymentHandler:  handler.NewPaymentHandler(services.Payment),
		authHandler:     handler.NewAuthHandler(services.Auth),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.GET("/products", s.productHandler.ListProducts)
	api.GET("/products/:id", s.productHandler.GetProduct)

	// -------- cart (keyed by X-Device-Id) --------
	cart := api.Group("/cart")
	cart.GET("", s.cartHandler.GetCart)
	cart.DELETE("", s.cartHandler.ClearCart)
	cart.POST("/items", s.cartHandler.AddItem)
	cart.PUT("/items/:productId", s.cartHandler.UpdateItem)
	cart.DELETE("/items/:productId", s.cartHandler.RemoveItem)

	checkout := api.Group("/checkout")
	checkout.POST("", s.checkoutHandler.PlaceOrder)
	checkout.POST("/gateway-order", s.checkoutHandler.BeginGatewayCheckout)
	checkout.POST("/gateway-confirm", s.checkoutHandler.ConfirmGatewayCheckout)

	orders := api.Group("/orders")
	orders.POST("", s.orderHandler.CreateOrder)
	orders.GET("", s.orderHandler.ListOrders)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.PUT("/:id", s.orderHandler.UpdateOrderStatus)

	payments := api.Group("/payments")
	payments.POST("/create-order", s.paymentHandler.CreateOrder)
	payments.POST("/verify-payment", s.paymentHandler.VerifyPayment)

	// -------- accounts --------
	otp := api.Group("/otp", s.otpRateLimiter())
	otp.POST("/send", s.authHandler.SendOTP)
	otp.POST("/verify", s.authHandler.VerifyOTP)

	api.POST("/auth/login", s.authHandler.Login)
	api.GET("/users/me", s.authHandler.Me, middleware.AuthMiddleware(s.tokens))
}

func (s *Server) otpRateLimiter() echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.opts.OTPRate),
		Burst:     s.opts.OTPBurst,
		ExpiresIn: 3 * time.Minute,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "could not identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many OTP requests, try again later")
		},
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
