package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/aasta/aasta-backend/pkg/enums"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/metrics"
	"github.com/aasta/aasta-backend/pkg/razorpay"
)

const (
	defaultMinimumOrderMinorUnits = 100
	defaultOrderDescription       = "Investment in AASTA"
)

// Gateway creates orders with the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
}

// CreateOrderInput is an order request in minor currency units.
type CreateOrderInput struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt" validate:"required,max=40"`
}

// OrderServiceParams wires the order creator.
type OrderServiceParams struct {
	Gateway          Gateway
	DefaultCurrency  string
	MinimumAmount    int64
	OrderDescription string
	Logger           *logger.Logger
	Metrics          *metrics.PaymentMetrics
}

// OrderService asks the gateway for an order per investment chunk. Nothing is
// persisted here.
type OrderService struct {
	gateway     Gateway
	currency    enums.Currency
	minimum     int64
	description string
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
}

func NewOrderService(params OrderServiceParams) (*OrderService, error) {
	currency := enums.CurrencyINR
	if strings.TrimSpace(params.DefaultCurrency) != "" {
		parsed, err := enums.ParseCurrency(params.DefaultCurrency)
		if err != nil {
			return nil, fmt.Errorf("order service currency: %w", err)
		}
		currency = parsed
	}
	minimum := params.MinimumAmount
	if minimum <= 0 {
		minimum = defaultMinimumOrderMinorUnits
	}
	description := strings.TrimSpace(params.OrderDescription)
	if description == "" {
		description = defaultOrderDescription
	}
	return &OrderService{
		gateway:     params.Gateway,
		currency:    currency,
		minimum:     minimum,
		description: description,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*razorpay.Order, error) {
	in.Receipt = strings.TrimSpace(in.Receipt)

	errs := newFieldErrors()
	if in.Amount < s.minimum {
		errs.add("amount", fmt.Sprintf("Amount must be at least ₹%d (%d paise)", s.minimum/100, s.minimum))
	}
	errs.addStruct(in)
	currency := s.currency
	if raw := strings.TrimSpace(in.Currency); raw != "" {
		parsed, err := enums.ParseCurrency(raw)
		if err != nil {
			errs.add("currency", "Unsupported currency")
		}
		currency = parsed
	}
	if err := errs.err(); err != nil {
		s.metrics.IncOrder(metrics.OutcomeValidation)
		return nil, err
	}

	if s.gateway == nil {
		s.metrics.IncOrder(metrics.OutcomeError)
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "Payment service not configured")
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   in.Amount,
		Currency: currency.String(),
		Receipt:  in.Receipt,
		Notes:    map[string]string{"description": s.description},
	})
	if err != nil {
		s.metrics.IncOrder(metrics.OutcomeError)
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"receipt": in.Receipt, "amount_minor": in.Amount})
			s.logg.Error(logCtx, "payment order creation failed", err)
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "Failed to create payment order")
		}
		return nil, err
	}

	s.metrics.IncOrder(metrics.OutcomeSuccess)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "gateway_order_id", order.ID), "payment order created")
	}
	return order, nil
}
