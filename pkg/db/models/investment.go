package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aasta/aasta-backend/pkg/enums"
)

// Investment is one verified gateway payment. Rows are written once and never
// mutated by the payment flow.
type Investment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvestorName     string              `gorm:"column:investor_name;not null"`
	InvestorEmail    string              `gorm:"column:investor_email;not null"`
	InvestorPhone    string              `gorm:"column:investor_phone;not null;default:''"`
	InvestorLinkedIn string              `gorm:"column:investor_linkedin;not null;default:''"`
	InvestmentAmount decimal.Decimal     `gorm:"column:investment_amount;type:numeric(14,2);not null"`
	Currency         enums.Currency      `gorm:"column:currency;not null;default:'INR'"`
	GatewayOrderID   string              `gorm:"column:gateway_order_id;not null;uniqueIndex:investments_gateway_order_id_key"`
	GatewayPaymentID string              `gorm:"column:gateway_payment_id;not null;uniqueIndex:investments_gateway_payment_id_key"`
	GatewaySignature string              `gorm:"column:gateway_signature;not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null;default:'completed';index"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Investment) TableName() string {
	return "investments"
}

// BeforeCreate assigns the primary key client-side so the same model works on
// Postgres and sqlite.
func (i *Investment) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
