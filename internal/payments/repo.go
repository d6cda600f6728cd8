package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aasta/aasta-backend/pkg/db/models"
	"github.com/aasta/aasta-backend/pkg/enums"
	"github.com/aasta/aasta-backend/pkg/pagination"
)

// Totals aggregates completed investments.
type Totals struct {
	Amount    decimal.Decimal
	Investors int64
}

// ListQuery selects one page of the admin ledger. A zero Status lists every record.
type ListQuery struct {
	pagination.Params
	Status enums.PaymentStatus
}

// Page is one slice of the admin ledger.
type Page struct {
	Items      []models.Investment
	NextCursor string
}

// Repository manages persistence for investment records.
type Repository interface {
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Investment, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Investment, error)
	Create(ctx context.Context, inv *models.Investment) error
	Totals(ctx context.Context) (Totals, error)
	Recent(ctx context.Context, limit int) ([]models.Investment, error)
	List(ctx context.Context, q ListQuery) (*Page, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an investment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindByPaymentID returns nil, nil when no record exists.
func (r *repository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Investment, error) {
	return r.findOne(ctx, "gateway_payment_id = ?", paymentID)
}

// FindByOrderID returns nil, nil when no record exists.
func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*models.Investment, error) {
	return r.findOne(ctx, "gateway_order_id = ?", orderID)
}

func (r *repository) findOne(ctx context.Context, query string, arg string) (*models.Investment, error) {
	var inv models.Investment
	err := r.db.WithContext(ctx).Where(query, arg).Take(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Create(ctx context.Context, inv *models.Investment) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) Totals(ctx context.Context) (Totals, error) {
	var row struct {
		Amount    decimal.Decimal
		Investors int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Investment{}).
		Select("COALESCE(SUM(investment_amount), 0) AS amount, COUNT(*) AS investors").
		Where("payment_status = ?", enums.PaymentStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return Totals{}, err
	}
	return Totals{Amount: row.Amount, Investors: row.Investors}, nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.Investment, error) {
	if limit <= 0 {
		return []models.Investment{}, nil
	}
	var rows []models.Investment
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", enums.PaymentStatusCompleted).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List walks every record newest first using a (created_at, id) cursor.
func (r *repository) List(ctx context.Context, q ListQuery) (*Page, error) {
	cursor, err := pagination.ParseCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).Model(&models.Investment{})
	if q.Status != "" {
		tx = tx.Where("payment_status = ?", q.Status)
	}
	if cursor != nil {
		tx = tx.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(q.Limit)
	var rows []models.Investment
	if err := tx.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &Page{Items: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		page.Items = rows[:limit]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
