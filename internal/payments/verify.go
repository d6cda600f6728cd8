package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aasta/aasta-backend/pkg/db"
	"github.com/aasta/aasta-backend/pkg/db/models"
	"github.com/aasta/aasta-backend/pkg/enums"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/metrics"
)

const defaultMinimumInvestment = 300

// VerifyInput is the checkout callback plus the investor profile.
type VerifyInput struct {
	GatewayOrderID   string          `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string          `json:"razorpay_payment_id" validate:"required"`
	GatewaySignature string          `json:"razorpay_signature" validate:"required"`
	InvestorName     string          `json:"investorName" validate:"required,max=200"`
	InvestorEmail    string          `json:"investorEmail" validate:"required,email"`
	InvestorPhone    string          `json:"investorPhone" validate:"max=32"`
	InvestorLinkedIn string          `json:"investorLinkedIn" validate:"omitempty,linkedin"`
	InvestmentAmount decimal.Decimal `json:"investmentAmount"`
}

// VerifyResult identifies the durable record behind a verified payment.
type VerifyResult struct {
	PaymentID    string
	OrderID      string
	InvestmentID uuid.UUID
	// Duplicate is set when the payment had already been recorded.
	Duplicate bool
}

// VerificationParams wires the verification service.
type VerificationParams struct {
	Repo              Repository
	Secret            string
	Currency          string
	MinimumInvestment int64
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
}

// VerificationService checks checkout signatures and records each gateway
// payment exactly once.
type VerificationService struct {
	repo     Repository
	secret   string
	currency enums.Currency
	minimum  decimal.Decimal
	logg     *logger.Logger
	metrics  *metrics.PaymentMetrics
}

func NewVerificationService(params VerificationParams) (*VerificationService, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("investment repository required")
	}
	currency := enums.CurrencyINR
	if strings.TrimSpace(params.Currency) != "" {
		parsed, err := enums.ParseCurrency(params.Currency)
		if err != nil {
			return nil, fmt.Errorf("verification currency: %w", err)
		}
		currency = parsed
	}
	minimum := params.MinimumInvestment
	if minimum <= 0 {
		minimum = defaultMinimumInvestment
	}
	return &VerificationService{
		repo:     params.Repo,
		secret:   strings.TrimSpace(params.Secret),
		currency: currency,
		minimum:  decimal.NewFromInt(minimum),
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Verify validates the input, checks the signature and stores a completed
// investment. Re-submitting the same payment returns the stored record.
func (s *VerificationService) Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	in = normalize(in)

	if err := s.validate(in); err != nil {
		s.metrics.IncVerification(metrics.OutcomeValidation)
		return nil, err
	}

	if s.secret == "" {
		s.metrics.IncVerification(metrics.OutcomeError)
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "Payment service not configured")
	}

	if s.logg != nil {
		ctx = s.logg.WithPayment(ctx, in.GatewayOrderID, in.GatewayPaymentID)
	}

	if !VerifySignature(s.secret, in.GatewayOrderID, in.GatewayPaymentID, in.GatewaySignature) {
		s.metrics.IncVerification(metrics.OutcomeInvalidSignature)
		if s.logg != nil {
			s.logg.Warn(ctx, "payment signature mismatch")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, "Invalid payment signature")
	}

	existing, err := s.repo.FindByPaymentID(ctx, in.GatewayPaymentID)
	if err != nil {
		return nil, s.storageError(ctx, err, "lookup")
	}
	if existing != nil {
		return s.duplicate(ctx, existing), nil
	}

	record := &models.Investment{
		InvestorName:     in.InvestorName,
		InvestorEmail:    in.InvestorEmail,
		InvestorPhone:    in.InvestorPhone,
		InvestorLinkedIn: in.InvestorLinkedIn,
		InvestmentAmount: in.InvestmentAmount.Round(2),
		Currency:         s.currency,
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		GatewaySignature: in.GatewaySignature,
		PaymentStatus:    enums.PaymentStatusCompleted,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if !db.IsUniqueViolation(err, "") {
			return nil, s.storageError(ctx, err, "insert")
		}
		// A concurrent submit won the insert; answer with its record.
		winner, lookupErr := s.findWinner(ctx, in)
		if lookupErr != nil {
			return nil, s.storageError(ctx, lookupErr, "reread")
		}
		if winner == nil {
			dup := pkgerrors.Wrap(pkgerrors.CodeDuplicatePayment, err, "payment already recorded")
			return nil, s.storageError(ctx, dup, "reread")
		}
		if winner.GatewayPaymentID != in.GatewayPaymentID && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"recorded_payment_id": winner.GatewayPaymentID,
				"investment_id":       winner.ID.String(),
			}), "order already recorded under another payment id; reconcile manually")
		}
		return s.duplicate(ctx, winner), nil
	}

	s.metrics.IncVerification(metrics.OutcomeSuccess)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "investment_id", record.ID.String()), "payment verified and recorded")
	}
	return &VerifyResult{
		PaymentID:    record.GatewayPaymentID,
		OrderID:      record.GatewayOrderID,
		InvestmentID: record.ID,
	}, nil
}

func (s *VerificationService) validate(in VerifyInput) error {
	errs := newFieldErrors()
	errs.addStruct(in)
	switch {
	case !in.InvestmentAmount.IsPositive():
		errs.add("investmentAmount", "Investment amount must be a positive number")
	case in.InvestmentAmount.LessThan(s.minimum):
		errs.add("investmentAmount", fmt.Sprintf("Minimum investment amount is ₹%s", s.minimum.String()))
	}
	return errs.err()
}

func (s *VerificationService) findWinner(ctx context.Context, in VerifyInput) (*models.Investment, error) {
	winner, err := s.repo.FindByPaymentID(ctx, in.GatewayPaymentID)
	if err != nil || winner != nil {
		return winner, err
	}
	return s.repo.FindByOrderID(ctx, in.GatewayOrderID)
}

func (s *VerificationService) duplicate(ctx context.Context, existing *models.Investment) *VerifyResult {
	s.metrics.IncVerification(metrics.OutcomeDuplicate)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "investment_id", existing.ID.String()), "payment already recorded")
	}
	return &VerifyResult{
		PaymentID:    existing.GatewayPaymentID,
		OrderID:      existing.GatewayOrderID,
		InvestmentID: existing.ID,
		Duplicate:    true,
	}
}

// storageError logs the full failure and returns a generic internal error.
func (s *VerificationService) storageError(ctx context.Context, err error, step string) error {
	s.metrics.IncVerification(metrics.OutcomeError)
	if s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "step", step), "failed to record verified payment", err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record payment").
		WithDetails(map[string]any{"step": step})
}

func normalize(in VerifyInput) VerifyInput {
	in.GatewayOrderID = strings.TrimSpace(in.GatewayOrderID)
	in.GatewayPaymentID = strings.TrimSpace(in.GatewayPaymentID)
	in.InvestorName = strings.TrimSpace(in.InvestorName)
	in.InvestorEmail = strings.ToLower(strings.TrimSpace(in.InvestorEmail))
	in.InvestorPhone = strings.TrimSpace(in.InvestorPhone)
	in.InvestorLinkedIn = strings.TrimSpace(in.InvestorLinkedIn)
	return in
}
