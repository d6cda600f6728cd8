package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	rzp "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"

	"github.com/aasta/aasta-backend/pkg/config"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/metrics"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultDescription = "Failed to create payment order"
	opCreateOrder      = "create_order"
)

var errKeysRequired = errors.New("razorpay key id and secret are required")

// OrderAPI is the slice of the SDK order resource this package calls.
type OrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client wraps the Razorpay SDK with bounded calls and typed errors.
type Client struct {
	orders  OrderAPI
	timeout time.Duration
	metrics *metrics.PaymentMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithOrderAPI replaces the SDK order resource.
func WithOrderAPI(api OrderAPI) Option {
	return func(c *Client) {
		if api != nil {
			c.orders = api
		}
	}
}

// WithTimeout bounds each gateway call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *metrics.PaymentMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the gateway client from configuration.
func NewClient(cfg config.RazorpayConfig, opts ...Option) (*Client, error) {
	client := &Client{timeout: defaultTimeout}
	if cfg.Timeout > 0 {
		client.timeout = cfg.Timeout
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.orders == nil {
		keyID := strings.TrimSpace(cfg.KeyID)
		if keyID == "" || !cfg.Configured() {
			return nil, errKeysRequired
		}
		client.orders = rzp.NewClient(keyID, strings.TrimSpace(cfg.KeySecret)).Order
	}
	return client, nil
}

// OrderRequest describes an order in minor currency units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the gateway's view of a created order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// CreateOrder registers an order with the gateway. Failures, including calls
// that outlive the configured timeout, come back as CodePaymentGateway.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c == nil || c.orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment gateway client not configured")
	}

	payload := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		payload["notes"] = notes
	}

	start := time.Now()
	resp, err := c.call(ctx, payload)
	c.metrics.ObserveGateway(opCreateOrder, time.Since(start))
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:       stringField(resp, "id"),
		Amount:   int64Field(resp, "amount"),
		Currency: stringField(resp, "currency"),
		Receipt:  stringField(resp, "receipt"),
		Status:   stringField(resp, "status"),
	}
	if order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentGateway, defaultDescription)
	}
	if order.Amount == 0 {
		order.Amount = req.Amount
	}
	if order.Currency == "" {
		order.Currency = req.Currency
	}
	if order.Receipt == "" {
		order.Receipt = req.Receipt
	}
	return order, nil
}

type callResult struct {
	resp map[string]interface{}
	err  error
}

// The SDK takes no context; the call runs in its own goroutine and is
// abandoned when ctx or the timeout fires first.
func (c *Client) call(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		resp, err := c.orders.Create(payload, nil)
		done <- callResult{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, ctx.Err(), "payment gateway timed out").
			WithStatus(http.StatusGatewayTimeout)
	case res := <-done:
		if res.err != nil {
			return nil, gatewayError(res.err)
		}
		return res.resp, nil
	}
}

func gatewayError(err error) error {
	desc := strings.TrimSpace(err.Error())
	if desc == "" {
		desc = defaultDescription
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, desc).WithStatus(gatewayStatus(err))
}

// gatewayStatus maps the SDK error types onto the status the gateway reported.
func gatewayStatus(err error) int {
	var (
		badRequest *rzperrors.BadRequestError
		upstream   *rzperrors.GatewayError
	)
	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}
