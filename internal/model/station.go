package model

import "github.com/shopspring/decimal"

// Station is one fuel station; nozzles and tanks are numbered 1..N
type Station struct {
	BaseModel
	Code                 string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"code" validate:"required,max=32"`
	Name                 string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Address              string          `gorm:"type:text" json:"address"`
	NozzleCount          int             `gorm:"not null" json:"nozzle_count" validate:"required,gt=0,lte=64"`
	TankCount            int             `gorm:"not null" json:"tank_count" validate:"gte=0,lte=32"`
	DefaultPricePerLiter decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"default_price_per_liter"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
}

// Nozzles returns 1..NozzleCount
func (s *Station) Nozzles() []int {
	return seq(s.NozzleCount)
}

// Tanks returns 1..TankCount
func (s *Station) Tanks() []int {
	return seq(s.TankCount)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
