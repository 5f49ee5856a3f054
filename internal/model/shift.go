package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

// Shift is one staffed operating period at a station.
// Version is bumped on every state change and acts as the close token.
type Shift struct {
	BaseModel
	StationID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_shift_station_date_number" json:"station_id"`
	Station       *Station        `gorm:"foreignKey:StationID" json:"station,omitempty"`
	DailyRecordID uuid.UUID       `gorm:"type:uuid;not null;index" json:"daily_record_id"`
	DailyRecord   *DailyRecord    `gorm:"foreignKey:DailyRecordID" json:"daily_record,omitempty"`
	Date          string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_shift_station_date_number" json:"date"`
	ShiftNumber   int             `gorm:"not null;uniqueIndex:idx_shift_station_date_number" json:"shift_number"`
	Status        ShiftStatus     `gorm:"type:varchar(10);not null;index" json:"status"`
	StaffID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"staff_id"`
	Staff         *User           `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	PricePerLiter decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_liter"`
	OpenedAt      time.Time       `gorm:"not null" json:"opened_at"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
	ClosedByID    *uuid.UUID      `gorm:"type:uuid" json:"closed_by_id,omitempty"`
	Version       int             `gorm:"not null;default:1" json:"version"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`

	MeterReadings  []MeterReading  `gorm:"foreignKey:ShiftID" json:"meter_readings,omitempty"`
	GaugeReadings  []GaugeReading  `gorm:"foreignKey:ShiftID" json:"gauge_readings,omitempty"`
	Reconciliation *Reconciliation `gorm:"foreignKey:ShiftID" json:"reconciliation,omitempty"`
}

// TableName specifies the table name for GORM
func (Shift) TableName() string {
	return "shifts"
}

func (s *Shift) IsOpen() bool {
	return s.Status == ShiftOpen
}
