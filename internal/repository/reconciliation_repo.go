package repository

import (
	"context"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReconciliationRepository interface {
	FindByShift(ctx context.Context, shiftID uuid.UUID) (*model.Reconciliation, error)
	List(ctx context.Context, filter ReconciliationFilter) ([]model.Reconciliation, error)
}

// ReconciliationFilter selects closed-shift results by station, date window and severity
type ReconciliationFilter struct {
	StationID  *uuid.UUID
	From       string
	To         string
	Severities []string
	Limit      int
}

type reconciliationRepo struct {
	db *gorm.DB
}

func NewReconciliationRepo(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepo{db}
}

func (r *reconciliationRepo) FindByShift(ctx context.Context, shiftID uuid.UUID) (*model.Reconciliation, error) {
	var rec model.Reconciliation
	if err := r.db.WithContext(ctx).First(&rec, "shift_id = ?", shiftID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *reconciliationRepo) List(ctx context.Context, filter ReconciliationFilter) ([]model.Reconciliation, error) {
	var recs []model.Reconciliation
	query := r.db.WithContext(ctx)
	if filter.StationID != nil {
		query = query.Where("station_id = ?", *filter.StationID)
	}
	if filter.From != "" {
		query = query.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("date <= ?", filter.To)
	}
	if len(filter.Severities) > 0 {
		query = query.Where("severity IN ?", filter.Severities)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Order("date DESC, created_at DESC").Find(&recs).Error
	return recs, err
}
