package repository

import (
	"context"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StationRepository interface {
	Create(ctx context.Context, station *model.Station) error
	FindAll(ctx context.Context, onlyID *uuid.UUID) ([]model.Station, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Station, error)
	FindByCode(ctx context.Context, code string) (*model.Station, error)
	UpdatePrice(tx *gorm.DB, id uuid.UUID, price decimal.Decimal, updatedBy string) error
}

type stationRepo struct {
	db *gorm.DB
}

func NewStationRepo(db *gorm.DB) StationRepository {
	return &stationRepo{db}
}

func (r *stationRepo) Create(ctx context.Context, station *model.Station) error {
	return r.db.WithContext(ctx).Create(station).Error
}

// FindAll lists stations ordered by code; onlyID narrows the list to one station
func (r *stationRepo) FindAll(ctx context.Context, onlyID *uuid.UUID) ([]model.Station, error) {
	var stations []model.Station
	query := r.db.WithContext(ctx).Order("code ASC")
	if onlyID != nil {
		query = query.Where("id = ?", *onlyID)
	}
	err := query.Find(&stations).Error
	return stations, err
}

func (r *stationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Station, error) {
	var station model.Station
	if err := r.db.WithContext(ctx).First(&station, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepo) FindByCode(ctx context.Context, code string) (*model.Station, error) {
	var station model.Station
	if err := r.db.WithContext(ctx).First(&station, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

// UpdatePrice takes tx so the audit row commits with it
func (r *stationRepo) UpdatePrice(tx *gorm.DB, id uuid.UUID, price decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.Station{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"default_price_per_liter": price,
			"updated_by":              updatedBy,
		}).Error
}
