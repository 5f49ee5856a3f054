package service

import (
	"context"
	"strings"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StationService interface {
	Create(ctx context.Context, actor Actor, req *CreateStationRequest) (*model.Station, error)
	List(ctx context.Context, actor Actor) ([]model.Station, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Station, error)
	UpdatePrice(ctx context.Context, actor Actor, id uuid.UUID, price decimal.Decimal) (*model.Station, error)
}

type CreateStationRequest struct {
	Code                 string          `json:"code" validate:"required,max=32"`
	Name                 string          `json:"name" validate:"required"`
	Address              string          `json:"address"`
	NozzleCount          int             `json:"nozzle_count" validate:"required,gt=0,lte=64"`
	TankCount            int             `json:"tank_count" validate:"gte=0,lte=32"`
	DefaultPricePerLiter decimal.Decimal `json:"default_price_per_liter" validate:"gt=0"`
}

type stationService struct {
	db          *gorm.DB
	stationRepo repository.StationRepository
	auditRepo   repository.AuditRepository
	log         *zap.Logger
}

func NewStationService(db *gorm.DB, stationRepo repository.StationRepository, auditRepo repository.AuditRepository, log *zap.Logger) StationService {
	return &stationService{
		db:          db,
		stationRepo: stationRepo,
		auditRepo:   auditRepo,
		log:         log.Named("station"),
	}
}

func (s *stationService) Create(ctx context.Context, actor Actor, req *CreateStationRequest) (*model.Station, error) {
	if err := actor.requireAdmin("creating a station"); err != nil {
		return nil, err
	}
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if existing, err := s.stationRepo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, conflict("station code %s already exists", code)
	}

	station := &model.Station{
		Code:                 code,
		Name:                 strings.TrimSpace(req.Name),
		Address:              req.Address,
		NozzleCount:          req.NozzleCount,
		TankCount:            req.TankCount,
		DefaultPricePerLiter: req.DefaultPricePerLiter.Round(2),
		IsActive:             true,
	}
	station.CreatedBy = actor.ID()
	station.UpdatedBy = actor.ID()

	if err := s.stationRepo.Create(ctx, station); err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("station code %s already exists", code)
		}
		return nil, err
	}

	s.log.Info("station created", zap.String("station_id", station.ID.String()), zap.String("code", code))
	return station, nil
}

func (s *stationService) List(ctx context.Context, actor Actor) ([]model.Station, error) {
	scope, err := actor.scopeStation(nil)
	if err != nil {
		return nil, err
	}
	return s.stationRepo.FindAll(ctx, scope)
}

func (s *stationService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Station, error) {
	if err := actor.requireStation(id); err != nil {
		return nil, err
	}
	station, err := s.stationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("station", err)
	}
	return station, nil
}

// UpdatePrice changes the default price used for new daily records
func (s *stationService) UpdatePrice(ctx context.Context, actor Actor, id uuid.UUID, price decimal.Decimal) (*model.Station, error) {
	if err := actor.requireAdmin("changing the station price"); err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, invalid("price per liter must be positive")
	}
	price = price.Round(2)

	var updated *model.Station
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Station
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return notFound("station", err)
		}
		old := map[string]interface{}{"default_price_per_liter": existing.DefaultPricePerLiter}

		if err := s.stationRepo.UpdatePrice(tx, id, price, actor.ID()); err != nil {
			return err
		}
		if err := appendAudit(tx, s.auditRepo, actor, model.AuditStationPriceUpdate, "station", id.String(),
			old, map[string]interface{}{"default_price_per_liter": price}); err != nil {
			return err
		}

		existing.DefaultPricePerLiter = price
		existing.UpdatedBy = actor.ID()
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("station price updated", zap.String("station_id", id.String()), zap.String("price", price.String()))
	return updated, nil
}
