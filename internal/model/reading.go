package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MeterReading is one nozzle's cumulative counter at shift start and end.
type MeterReading struct {
	BaseModel
	ShiftID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_meter_shift_nozzle" json:"shift_id"`
	Nozzle       int              `gorm:"not null;uniqueIndex:idx_meter_shift_nozzle" json:"nozzle"`
	StartReading decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"start_reading"`
	EndReading   *decimal.Decimal `gorm:"type:numeric(14,2)" json:"end_reading"`
	// Photos holds storage keys of the meter photos taken by staff.
	Photos datatypes.JSON `json:"photos,omitempty"`
}

// Sold returns end - start, or nil while the end reading is missing
func (m *MeterReading) Sold() *decimal.Decimal {
	if m.EndReading == nil {
		return nil
	}
	sold := m.EndReading.Sub(m.StartReading)
	return &sold
}

type GaugePhase string

const (
	GaugeStart GaugePhase = "START"
	GaugeEnd   GaugePhase = "END"
)

// GaugeReading is one tank's fill percentage at one phase of a shift.
type GaugeReading struct {
	BaseModel
	ShiftID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_gauge_shift_tank_phase" json:"shift_id"`
	Tank       int             `gorm:"not null;uniqueIndex:idx_gauge_shift_tank_phase" json:"tank"`
	Phase      GaugePhase      `gorm:"type:varchar(8);not null;uniqueIndex:idx_gauge_shift_tank_phase" json:"phase"`
	Percentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percentage"`
}
