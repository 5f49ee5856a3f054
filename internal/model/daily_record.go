package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyRecord holds the price of record for one station on one business date.
// (station_id, date) is unique.
type DailyRecord struct {
	BaseModel
	StationID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_daily_station_date" json:"station_id"`
	Station       *Station        `gorm:"foreignKey:StationID" json:"station,omitempty"`
	Date          string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_station_date" json:"date"` // YYYY-MM-DD
	PricePerLiter decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_liter"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`
}
