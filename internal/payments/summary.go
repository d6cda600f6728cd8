package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/fxrate"
	"github.com/aasta/aasta-backend/pkg/logger"
)

const defaultRecentLimit = 20

// RateSource supplies the INR to USD conversion rate. It must not fail.
type RateSource interface {
	Get(ctx context.Context) fxrate.Rate
}

// RecentInvestor is the public projection of a record; contact details and
// gateway identifiers never leave the ledger through it.
type RecentInvestor struct {
	InvestorName     string
	CreatedAt        time.Time
	InvestmentAmount decimal.Decimal
}

// Summary is the progress widget payload.
type Summary struct {
	TotalAmount     decimal.Decimal
	TotalInvestors  int64
	RecentInvestors []RecentInvestor
	ConversionRate  float64
}

type SummaryService struct {
	repo        Repository
	rates       RateSource
	recentLimit int
	logg        *logger.Logger
}

func NewSummaryService(repo Repository, rates RateSource, recentLimit int, logg *logger.Logger) (*SummaryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("investment repository required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate source required")
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &SummaryService{repo: repo, rates: rates, recentLimit: recentLimit, logg: logg}, nil
}

// Summary aggregates completed investments only.
func (s *SummaryService) Summary(ctx context.Context) (*Summary, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load investment totals")
	}
	rows, err := s.repo.Recent(ctx, s.recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load recent investors")
	}

	recent := make([]RecentInvestor, 0, len(rows))
	for _, row := range rows {
		recent = append(recent, RecentInvestor{
			InvestorName:     row.InvestorName,
			CreatedAt:        row.CreatedAt,
			InvestmentAmount: row.InvestmentAmount,
		})
	}

	rate := s.rates.Get(ctx)
	if s.logg != nil && rate.Source == fxrate.SourceDefault {
		s.logg.Debug(ctx, "summary served with default conversion rate")
	}

	return &Summary{
		TotalAmount:     totals.Amount,
		TotalInvestors:  totals.Investors,
		RecentInvestors: recent,
		ConversionRate:  rate.Value,
	}, nil
}
