package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PayCash     PaymentMethod = "CASH"
	PayCredit   PaymentMethod = "CREDIT"
	PayTransfer PaymentMethod = "TRANSFER"
	PayCard     PaymentMethod = "CARD"
	PayBoxTruck PaymentMethod = "BOX_TRUCK"
)

// PaymentMethods in report column order
var PaymentMethods = []PaymentMethod{PayCash, PayCredit, PayTransfer, PayCard, PayBoxTruck}

func (p PaymentMethod) Valid() bool {
	for _, m := range PaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

// Transaction is one fuel sale. Amount is liters x price unless entered otherwise.
type Transaction struct {
	BaseModel
	StationID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_tx_dup" json:"station_id"`
	Station       *Station        `gorm:"foreignKey:StationID" json:"station,omitempty"`
	DailyRecordID *uuid.UUID      `gorm:"type:uuid;index" json:"daily_record_id,omitempty"`
	ShiftID       *uuid.UUID      `gorm:"type:uuid;index" json:"shift_id,omitempty"`
	SaleDate      string          `gorm:"type:varchar(10);not null;index:idx_tx_dup" json:"sale_date"` // YYYY-MM-DD, Asia/Bangkok
	SoldAt        time.Time       `gorm:"not null" json:"sold_at"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Liters        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"liters"`
	PricePerLiter decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_liter"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`

	OwnerID      *uuid.UUID `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Owner        *Owner     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	TruckID      *uuid.UUID `gorm:"type:uuid;index" json:"truck_id,omitempty"`
	Truck        *Truck     `gorm:"foreignKey:TruckID" json:"truck,omitempty"`
	LicensePlate string     `gorm:"type:varchar(32);index:idx_tx_dup" json:"license_plate"`
	BillBook     string     `gorm:"type:varchar(32)" json:"bill_book,omitempty"`
	BillNumber   string     `gorm:"type:varchar(32)" json:"bill_number,omitempty"`
	Note         string     `gorm:"type:text" json:"note,omitempty"`

	IsVoided   bool       `gorm:"default:false;index" json:"is_voided"`
	VoidReason string     `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	VoidedBy   string     `gorm:"type:varchar(64)" json:"voided_by,omitempty"`
}

// HasBill reports whether both bill identifiers are present
func (t *Transaction) HasBill() bool {
	return t.BillBook != "" && t.BillNumber != ""
}
