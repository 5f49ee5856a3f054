package model

import "github.com/google/uuid"

// Owner is a credit customer billed for fuel taken on account
type Owner struct {
	BaseModel
	Name        string  `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	PhoneNumber string  `gorm:"type:varchar(20)" json:"phone_number"`
	Company     string  `gorm:"type:varchar(255)" json:"company,omitempty"`
	Note        string  `gorm:"type:text" json:"note,omitempty"`
	Trucks      []Truck `gorm:"foreignKey:OwnerID" json:"trucks,omitempty"`
}

// Truck is a vehicle registered to an owner. Plate is unique per owner.
type Truck struct {
	BaseModel
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	LicensePlate string    `gorm:"type:varchar(32);not null;index" json:"license_plate" validate:"required"`
	Description  string    `gorm:"type:varchar(255)" json:"description,omitempty"`
}
