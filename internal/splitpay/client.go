package splitpay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	createOrderPath = "/api/payments/create-order"
	verifyPath      = "/api/payments/verify"
	summaryPath     = "/api/payments/summary"

	defaultClientTimeout = 15 * time.Second
)

// APIError is a non-2xx answer from the payments API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payments api: status %d %s: %s", e.Status, e.Code, e.Message)
}

// UserMessage is the server's public message.
func (e *APIError) UserMessage() string { return e.Message }

// Client talks to the payments API. It satisfies OrderCreator and Verifier.
type Client struct {
	http *resty.Client
}

// NewClient targets baseURL. A nil httpClient gets a fresh resty client.
func NewClient(baseURL string, httpClient *resty.Client) *Client {
	if httpClient == nil {
		httpClient = resty.New().SetTimeout(defaultClientTimeout)
	}
	httpClient.SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	httpClient.SetHeader("Accept", "application/json")
	return &Client{http: httpClient}
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	var out createOrderResponse
	if err := c.post(ctx, createOrderPath, createOrderBody{Amount: amountMinor, Currency: currency, Receipt: receipt}, &out); err != nil {
		return nil, err
	}
	return &Order{ID: out.OrderID, Amount: out.Amount, Currency: out.Currency, Receipt: out.Receipt}, nil
}

type verifyBody struct {
	OrderID          string `json:"razorpay_order_id"`
	PaymentID        string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
	InvestorName     string `json:"investorName"`
	InvestorEmail    string `json:"investorEmail"`
	InvestorPhone    string `json:"investorPhone"`
	InvestorLinkedIn string `json:"investorLinkedIn"`
	InvestmentAmount int64  `json:"investmentAmount"`
}

type verifyResponse struct {
	Success      bool   `json:"success"`
	PaymentID    string `json:"paymentId"`
	OrderID      string `json:"orderId"`
	InvestmentID string `json:"investmentId"`
}

func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	body := verifyBody{
		OrderID:          req.OrderID,
		PaymentID:        req.PaymentID,
		Signature:        req.Signature,
		InvestorName:     req.Profile.Name,
		InvestorEmail:    req.Profile.Email,
		InvestorPhone:    req.Profile.Phone,
		InvestorLinkedIn: req.Profile.LinkedIn,
		InvestmentAmount: req.Amount,
	}
	var out verifyResponse
	if err := c.post(ctx, verifyPath, body, &out); err != nil {
		return nil, err
	}
	return &VerifyResponse{PaymentID: out.PaymentID, OrderID: out.OrderID, InvestmentID: out.InvestmentID}, nil
}

// SummaryResponse mirrors the public progress payload.
type SummaryResponse struct {
	Success         bool    `json:"success"`
	TotalAmount     float64 `json:"totalAmount"`
	TotalInvestors  int64   `json:"totalInvestors"`
	ConversionRate  float64 `json:"conversionRate"`
	RecentInvestors []struct {
		InvestorName     string    `json:"investorName"`
		CreatedAt        time.Time `json:"createdAt"`
		InvestmentAmount float64   `json:"investmentAmount"`
	} `json:"recentInvestors"`
}

// Summary fetches the progress totals, typically after EventChunkVerified.
func (c *Client) Summary(ctx context.Context) (*SummaryResponse, error) {
	var out SummaryResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", summaryPath, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return nil
}
