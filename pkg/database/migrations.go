package database

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"go-fuelstation-pos/internal/model"
)

// Migrate applies every pending migration. The statements stay portable
// between Postgres and SQLite so tests run the same schema.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250101_create_auth_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.Privilege{}, &model.Role{}, &model.User{})
			},
		},
		{
			ID: "20250102_create_station_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.Station{}, &model.DailyRecord{}, &model.Shift{},
					&model.MeterReading{}, &model.GaugeReading{}, &model.Reconciliation{})
			},
		},
		{
			ID: "20250103_create_sales_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.Owner{}, &model.Truck{}, &model.Transaction{}, &model.AuditLog{})
			},
		},
		{
			// At most one OPEN shift per station, enforced by the database.
			ID: "20250104_one_open_shift_per_station",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_shift_one_open ON shifts (station_id) WHERE status = 'OPEN'").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_shift_one_open").Error
			},
		},
		{
			ID: "20250105_truck_plate_unique_per_owner",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_truck_owner_plate ON trucks (owner_id, license_plate) WHERE deleted_at IS NULL").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_truck_owner_plate").Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}
