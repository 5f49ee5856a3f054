package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation is written once when a shift closes and never updated.
type Reconciliation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ShiftID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"shift_id"`
	StationID uuid.UUID `gorm:"type:uuid;not null;index" json:"station_id"`
	Date      string    `gorm:"type:varchar(10);not null;index" json:"date"`

	TotalLiters      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_liters"`
	PricePerLiter    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_liter"`
	OtherExpected    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"other_expected"`
	ExpectedAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"expected_amount"`
	CashReceived     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cash_received"`
	CreditReceived   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"credit_received"`
	CardReceived     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"card_received"`
	TransferReceived decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"transfer_received"`
	TotalReceived    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_received"`
	Variance         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"variance"`
	VarianceStatus   string          `gorm:"type:varchar(10);not null" json:"variance_status"`
	Severity         string          `gorm:"type:varchar(10);not null;index" json:"severity"`

	ClosedBy  string    `gorm:"type:varchar(64)" json:"closed_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Reconciliation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
