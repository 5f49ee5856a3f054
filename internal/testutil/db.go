// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/pkg/database"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// The pool is limited to one connection so every query sees the same memory DB.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Station inserts a station with the given nozzle and tank counts priced at 30.00/L.
func Station(t *testing.T, db *gorm.DB, code string, nozzles, tanks int) *model.Station {
	t.Helper()
	station := &model.Station{
		Code:                 code,
		Name:                 "Station " + code,
		NozzleCount:          nozzles,
		TankCount:            tanks,
		DefaultPricePerLiter: decimal.RequireFromString("30.00"),
		IsActive:             true,
	}
	if err := db.Create(station).Error; err != nil {
		t.Fatalf("create station: %v", err)
	}
	return station
}

// Owner inserts a credit customer with the given truck plates.
func Owner(t *testing.T, db *gorm.DB, name string, plates ...string) *model.Owner {
	t.Helper()
	owner := &model.Owner{Name: name}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	for _, plate := range plates {
		truck := model.Truck{OwnerID: owner.ID, LicensePlate: plate}
		if err := db.Create(&truck).Error; err != nil {
			t.Fatalf("create truck %s: %v", plate, err)
		}
		owner.Trucks = append(owner.Trucks, truck)
	}
	return owner
}

// Sale inserts a live transaction directly, bypassing the service rules.
func Sale(t *testing.T, db *gorm.DB, stationID uuid.UUID, ownerID *uuid.UUID, method model.PaymentMethod, amount string) *model.Transaction {
	t.Helper()
	amt := decimal.RequireFromString(amount)
	now := time.Now()
	tx := &model.Transaction{
		StationID:     stationID,
		OwnerID:       ownerID,
		SoldAt:        now,
		SaleDate:      model.BusinessDate(now),
		PaymentMethod: method,
		Liters:        amt.Div(decimal.NewFromInt(30)).Round(2),
		PricePerLiter: decimal.NewFromInt(30),
		Amount:        amt,
	}
	if err := db.Omit("Station", "Owner", "Truck").Create(tx).Error; err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return tx
}
