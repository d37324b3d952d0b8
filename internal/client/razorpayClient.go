package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"storefront/internal/config"
	"storefront/internal/model"
	"time"

	"github.com/sony/gobreaker/v2"
)

type RazorpayClient interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (*model.GatewayOrder, error)
}

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	StatusCode  int
	Description string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("razorpay error %d: %s", e.StatusCode, e.Description)
}

type razorpayClientImpl struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*model.GatewayOrder]
	baseApiURL string
	keyID      string
	keySecret  string
	currency   string
}

func NewRazorpayClient(cfg *config.Razorpay, logger *slog.Logger) RazorpayClient {
	return &razorpayClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[*model.GatewayOrder](gobreaker.Settings{
			Name:        "razorpay",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// rejected requests are the caller's problem, not an outage
				var statusErr *StatusError
				if errors.As(err, &statusErr) {
					return statusErr.StatusCode < http.StatusInternalServerError
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		baseApiURL: cfg.BaseApiURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		currency:   cfg.Currency,
	}
}

func (c *razorpayClientImpl) CreateOrder(ctx context.Context, amount int64, receipt string) (*model.GatewayOrder, error) {
	return c.breaker.Execute(func() (*model.GatewayOrder, error) {
		return c.createOrder(ctx, amount, receipt)
	})
}

func (c *razorpayClientImpl) createOrder(ctx context.Context, amount int64, receipt string) (*model.GatewayOrder, error) {
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": c.currency,
		"receipt":  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/orders",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var rzpErr model.RazorpayError
		description := string(b)
		if json.Unmarshal(b, &rzpErr) == nil && rzpErr.Error.Description != "" {
			description = rzpErr.Error.Description
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Description: description}
	}

	var result model.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode razorpay response: %w", err)
	}
	result.KeyID = c.keyID

	return &result, nil
}
