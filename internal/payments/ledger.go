package payments

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aasta/aasta-backend/pkg/db/models"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/pagination"
)

// LedgerService lists every stored record for admin reconciliation.
type LedgerService struct {
	repo Repository
}

func NewLedgerService(repo Repository) (*LedgerService, error) {
	if repo == nil {
		return nil, fmt.Errorf("investment repository required")
	}
	return &LedgerService{repo: repo}, nil
}

func (s *LedgerService) List(ctx context.Context, q ListQuery) ([]models.Investment, string, error) {
	if q.Status != "" && !q.Status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	page, err := s.repo.List(ctx, q)
	if err != nil {
		if stderrors.Is(err, pagination.ErrInvalidCursor) {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list investments")
	}
	return page.Items, page.NextCursor, nil
}
