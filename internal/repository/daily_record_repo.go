package repository

import (
	"context"
	"errors"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DailyRecordRepository interface {
	Create(ctx context.Context, record *model.DailyRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailyRecord, error)
	FindByStationAndDate(ctx context.Context, stationID uuid.UUID, date string) (*model.DailyRecord, error)
	FindOrCreate(tx *gorm.DB, record *model.DailyRecord) (*model.DailyRecord, error)
	ListByMonth(ctx context.Context, stationID uuid.UUID, month string) ([]model.DailyRecord, error)
	CountTransactions(tx *gorm.DB, id uuid.UUID) (int64, error)
	CountShifts(tx *gorm.DB, id uuid.UUID) (int64, error)
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type dailyRecordRepo struct {
	db *gorm.DB
}

func NewDailyRecordRepo(db *gorm.DB) DailyRecordRepository {
	return &dailyRecordRepo{db}
}

func (r *dailyRecordRepo) Create(ctx context.Context, record *model.DailyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *dailyRecordRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DailyRecord, error) {
	var record model.DailyRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *dailyRecordRepo) FindByStationAndDate(ctx context.Context, stationID uuid.UUID, date string) (*model.DailyRecord, error) {
	var record model.DailyRecord
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND date = ?", stationID, date).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindOrCreate returns the record for (station, date), inserting the given one when absent
func (r *dailyRecordRepo) FindOrCreate(tx *gorm.DB, record *model.DailyRecord) (*model.DailyRecord, error) {
	var existing model.DailyRecord
	err := tx.Where("station_id = ? AND date = ?", record.StationID, record.Date).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ListByMonth lists records whose date starts with month (YYYY-MM)
func (r *dailyRecordRepo) ListByMonth(ctx context.Context, stationID uuid.UUID, month string) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND date LIKE ?", stationID, month+"-%").
		Order("date ASC").
		Find(&records).Error
	return records, err
}

func (r *dailyRecordRepo) CountTransactions(tx *gorm.DB, id uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.Transaction{}).Where("daily_record_id = ?", id).Count(&count).Error
	return count, err
}

func (r *dailyRecordRepo) CountShifts(tx *gorm.DB, id uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.Shift{}).Where("daily_record_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the row for good so the (station, date) slot can be reused
func (r *dailyRecordRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Unscoped().Delete(&model.DailyRecord{}, "id = ?", id).Error
}
