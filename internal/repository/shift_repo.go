package repository

import (
	"context"
	"errors"
	"time"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ShiftRepository interface {
	Create(tx *gorm.DB, shift *model.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	LoadWithReadings(tx *gorm.DB, id uuid.UUID) (*model.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error)

	// FindOpenShift answers "which shift is open at this station" from persisted state
	FindOpenShift(ctx context.Context, stationID uuid.UUID) (*model.Shift, error)
	FindOpenShiftTx(tx *gorm.DB, stationID uuid.UUID) (*model.Shift, error)
	FindLastClosed(tx *gorm.DB, stationID uuid.UUID) (*model.Shift, error)
	NumberTaken(tx *gorm.DB, stationID uuid.UUID, date string, number int) (bool, error)

	FindMeter(tx *gorm.DB, shiftID uuid.UUID, nozzle int) (*model.MeterReading, error)
	SetEndMeter(tx *gorm.DB, meterID uuid.UUID, end decimal.Decimal, photos []byte, updatedBy string) error
	CorrectMeter(tx *gorm.DB, meterID uuid.UUID, start decimal.Decimal, end *decimal.Decimal, updatedBy string) error
	SaveGauge(tx *gorm.DB, gauge *model.GaugeReading) error

	// BumpVersion invalidates outstanding close tokens; 0 rows means the shift is no longer open
	BumpVersion(tx *gorm.DB, shiftID uuid.UUID, updatedBy string) (int64, error)
	// Close flips OPEN to CLOSED only if the version still matches; 0 rows means someone else won
	Close(tx *gorm.DB, shiftID uuid.UUID, version int, closedAt time.Time, closedBy uuid.UUID) (int64, error)
	CreateReconciliation(tx *gorm.DB, rec *model.Reconciliation) error
}

// ShiftFilter narrows shift listings; zero values are ignored
type ShiftFilter struct {
	StationID *uuid.UUID
	From      string
	To        string
	Status    model.ShiftStatus
	Limit     int
}

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db}
}

func withReadings(db *gorm.DB) *gorm.DB {
	return db.
		Preload("MeterReadings", func(db *gorm.DB) *gorm.DB { return db.Order("nozzle ASC") }).
		Preload("GaugeReadings", func(db *gorm.DB) *gorm.DB { return db.Order("tank ASC, phase DESC") }).
		Preload("Reconciliation")
}

func (r *shiftRepo) Create(tx *gorm.DB, shift *model.Shift) error {
	return tx.Create(shift).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var shift model.Shift
	if err := withReadings(r.db.WithContext(ctx)).Preload("Staff").First(&shift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) LoadWithReadings(tx *gorm.DB, id uuid.UUID) (*model.Shift, error) {
	var shift model.Shift
	if err := withReadings(tx).First(&shift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error) {
	var shifts []model.Shift
	query := r.db.WithContext(ctx).Preload("Staff").Preload("Reconciliation")
	if filter.StationID != nil {
		query = query.Where("station_id = ?", *filter.StationID)
	}
	if filter.From != "" {
		query = query.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("date <= ?", filter.To)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Order("date DESC, shift_number DESC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) FindOpenShift(ctx context.Context, stationID uuid.UUID) (*model.Shift, error) {
	return r.FindOpenShiftTx(r.db.WithContext(ctx), stationID)
}

func (r *shiftRepo) FindOpenShiftTx(tx *gorm.DB, stationID uuid.UUID) (*model.Shift, error) {
	var shift model.Shift
	err := withReadings(tx).
		Where("station_id = ? AND status = ?", stationID, model.ShiftOpen).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindLastClosed returns the most recently closed shift, or nil when the station has none
func (r *shiftRepo) FindLastClosed(tx *gorm.DB, stationID uuid.UUID) (*model.Shift, error) {
	var shift model.Shift
	err := withReadings(tx).
		Where("station_id = ? AND status = ?", stationID, model.ShiftClosed).
		Order("closed_at DESC").
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) NumberTaken(tx *gorm.DB, stationID uuid.UUID, date string, number int) (bool, error) {
	var count int64
	err := tx.Model(&model.Shift{}).
		Where("station_id = ? AND date = ? AND shift_number = ?", stationID, date, number).
		Count(&count).Error
	return count > 0, err
}

func (r *shiftRepo) FindMeter(tx *gorm.DB, shiftID uuid.UUID, nozzle int) (*model.MeterReading, error) {
	var meter model.MeterReading
	if err := tx.Where("shift_id = ? AND nozzle = ?", shiftID, nozzle).First(&meter).Error; err != nil {
		return nil, err
	}
	return &meter, nil
}

func (r *shiftRepo) SetEndMeter(tx *gorm.DB, meterID uuid.UUID, end decimal.Decimal, photos []byte, updatedBy string) error {
	updates := map[string]interface{}{
		"end_reading": end,
		"updated_by":  updatedBy,
	}
	if len(photos) > 0 {
		updates["photos"] = photos
	}
	return tx.Model(&model.MeterReading{}).Where("id = ?", meterID).Updates(updates).Error
}

func (r *shiftRepo) CorrectMeter(tx *gorm.DB, meterID uuid.UUID, start decimal.Decimal, end *decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.MeterReading{}).Where("id = ?", meterID).Updates(map[string]interface{}{
		"start_reading": start,
		"end_reading":   end,
		"updated_by":    updatedBy,
	}).Error
}

// SaveGauge inserts or replaces the reading for (shift, tank, phase)
func (r *shiftRepo) SaveGauge(tx *gorm.DB, gauge *model.GaugeReading) error {
	var existing model.GaugeReading
	err := tx.Where("shift_id = ? AND tank = ? AND phase = ?", gauge.ShiftID, gauge.Tank, gauge.Phase).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(gauge).Error
	}
	if err != nil {
		return err
	}
	gauge.ID = existing.ID
	gauge.CreatedAt = existing.CreatedAt
	gauge.CreatedBy = existing.CreatedBy
	return tx.Model(&existing).Updates(map[string]interface{}{
		"percentage": gauge.Percentage,
		"updated_by": gauge.UpdatedBy,
	}).Error
}

func (r *shiftRepo) BumpVersion(tx *gorm.DB, shiftID uuid.UUID, updatedBy string) (int64, error) {
	res := tx.Model(&model.Shift{}).
		Where("id = ? AND status = ?", shiftID, model.ShiftOpen).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_by": updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) Close(tx *gorm.DB, shiftID uuid.UUID, version int, closedAt time.Time, closedBy uuid.UUID) (int64, error) {
	res := tx.Model(&model.Shift{}).
		Where("id = ? AND status = ? AND version = ?", shiftID, model.ShiftOpen, version).
		Updates(map[string]interface{}{
			"status":       model.ShiftClosed,
			"closed_at":    closedAt,
			"closed_by_id": closedBy,
			"version":      gorm.Expr("version + 1"),
			"updated_by":   closedBy.String(),
		})
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) CreateReconciliation(tx *gorm.DB, rec *model.Reconciliation) error {
	return tx.Create(rec).Error
}
