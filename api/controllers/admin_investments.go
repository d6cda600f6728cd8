package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aasta/aasta-backend/api/responses"
	"github.com/aasta/aasta-backend/api/validators"
	"github.com/aasta/aasta-backend/internal/payments"
	"github.com/aasta/aasta-backend/pkg/db/models"
	"github.com/aasta/aasta-backend/pkg/enums"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/pagination"
)

type InvestmentLister interface {
	List(ctx context.Context, q payments.ListQuery) ([]models.Investment, string, error)
}

// investmentDTO is the reconciliation view of a record. The signature stays
// in the database.
type investmentDTO struct {
	ID               uuid.UUID `json:"id"`
	InvestorName     string    `json:"investorName"`
	InvestorEmail    string    `json:"investorEmail"`
	InvestorPhone    string    `json:"investorPhone,omitempty"`
	InvestorLinkedIn string    `json:"investorLinkedIn,omitempty"`
	InvestmentAmount string    `json:"investmentAmount"`
	Currency         string    `json:"currency"`
	GatewayOrderID   string    `json:"gatewayOrderId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	PaymentStatus    string    `json:"paymentStatus"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toInvestmentDTO(m models.Investment) investmentDTO {
	return investmentDTO{
		ID:               m.ID,
		InvestorName:     m.InvestorName,
		InvestorEmail:    m.InvestorEmail,
		InvestorPhone:    m.InvestorPhone,
		InvestorLinkedIn: m.InvestorLinkedIn,
		InvestmentAmount: m.InvestmentAmount.StringFixed(2),
		Currency:         m.Currency.String(),
		GatewayOrderID:   m.GatewayOrderID,
		GatewayPaymentID: m.GatewayPaymentID,
		PaymentStatus:    m.PaymentStatus.String(),
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

// AdminListInvestments pages through the ledger, newest first, optionally
// narrowed to one payment status.
func AdminListInvestments(svc InvestmentLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := payments.ListQuery{Params: pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePaymentStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Invalid query parameter: status").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			q.Status = status
		}

		items, next, err := svc.List(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]investmentDTO, 0, len(items))
		for _, item := range items {
			out = append(out, toInvestmentDTO(item))
		}
		responses.WritePage(w, out, next)
	}
}
