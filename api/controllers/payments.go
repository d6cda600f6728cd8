package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aasta/aasta-backend/api/responses"
	"github.com/aasta/aasta-backend/api/validators"
	"github.com/aasta/aasta-backend/internal/payments"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/razorpay"
	"github.com/aasta/aasta-backend/pkg/types"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, in payments.CreateOrderInput) (*razorpay.Order, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, in payments.VerifyInput) (*payments.VerifyResult, error)
}

type SummaryReader interface {
	Summary(ctx context.Context) (*payments.Summary, error)
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	types.Ack
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers a gateway order for one investment chunk.
func CreateOrder(svc OrderCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConfiguration, "Payment service not configured"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), payments.CreateOrderInput{
			Amount:   body.Amount,
			Currency: body.Currency,
			Receipt:  body.Receipt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, http.StatusOK, createOrderResponse{
			Ack:      types.OK("Order created successfully"),
			OrderID:  order.ID,
			Amount:   order.Amount,
			Currency: order.Currency,
			Receipt:  order.Receipt,
		})
	}
}

// verifyRequest accepts the Razorpay checkout keys and the generic gateway
// aliases. The Razorpay keys win when both are sent.
type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`

	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	GatewaySignature string `json:"gatewaySignature"`

	InvestorName     string          `json:"investorName"`
	InvestorEmail    string          `json:"investorEmail"`
	InvestorPhone    string          `json:"investorPhone"`
	InvestorLinkedIn string          `json:"investorLinkedIn"`
	InvestmentAmount decimal.Decimal `json:"investmentAmount"`
}

func (v verifyRequest) input() payments.VerifyInput {
	return payments.VerifyInput{
		GatewayOrderID:   firstNonEmpty(v.RazorpayOrderID, v.GatewayOrderID),
		GatewayPaymentID: firstNonEmpty(v.RazorpayPaymentID, v.GatewayPaymentID),
		GatewaySignature: firstNonEmpty(v.RazorpaySignature, v.GatewaySignature),
		InvestorName:     v.InvestorName,
		InvestorEmail:    v.InvestorEmail,
		InvestorPhone:    v.InvestorPhone,
		InvestorLinkedIn: v.InvestorLinkedIn,
		InvestmentAmount: v.InvestmentAmount,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type verifyResponse struct {
	types.Ack
	PaymentID    string    `json:"paymentId"`
	OrderID      string    `json:"orderId"`
	InvestmentID uuid.UUID `json:"investmentId"`
}

// VerifyPayment checks the checkout signature and records the investment.
// A replayed payment answers exactly like the first submission.
func VerifyPayment(svc PaymentVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConfiguration, "Payment service not configured"))
			return
		}

		// Checkout handlers forward whatever the widget returned; extra keys are ignored.
		var body verifyRequest
		if err := validators.DecodeJSONBodyLenient(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, http.StatusOK, verifyResponse{
			Ack:          types.OK("Payment verified successfully"),
			PaymentID:    result.PaymentID,
			OrderID:      result.OrderID,
			InvestmentID: result.InvestmentID,
		})
	}
}

type recentInvestorDTO struct {
	InvestorName     string    `json:"investorName"`
	CreatedAt        time.Time `json:"createdAt"`
	InvestmentAmount float64   `json:"investmentAmount"`
}

type summaryResponse struct {
	types.Ack
	TotalAmount     float64             `json:"totalAmount"`
	TotalInvestors  int64               `json:"totalInvestors"`
	RecentInvestors []recentInvestorDTO `json:"recentInvestors"`
	ConversionRate  float64             `json:"conversionRate"`
}

// PaymentSummary serves the public progress widget.
func PaymentSummary(svc SummaryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "summary service unavailable"))
			return
		}

		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recent := make([]recentInvestorDTO, 0, len(summary.RecentInvestors))
		for _, inv := range summary.RecentInvestors {
			recent = append(recent, recentInvestorDTO{
				InvestorName:     inv.InvestorName,
				CreatedAt:        inv.CreatedAt.UTC(),
				InvestmentAmount: inv.InvestmentAmount.InexactFloat64(),
			})
		}

		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, http.StatusOK, summaryResponse{
			Ack:             types.OK("Summary retrieved successfully"),
			TotalAmount:     summary.TotalAmount.InexactFloat64(),
			TotalInvestors:  summary.TotalInvestors,
			RecentInvestors: recent,
			ConversionRate:  summary.ConversionRate,
		})
	}
}
