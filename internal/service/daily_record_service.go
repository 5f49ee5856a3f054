package service

import (
	"context"
	"errors"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyRecordService interface {
	Create(ctx context.Context, actor Actor, req *CreateDailyRecordRequest) (*model.DailyRecord, error)
	ListByMonth(ctx context.Context, actor Actor, stationID uuid.UUID, month string) ([]model.DailyRecord, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type CreateDailyRecordRequest struct {
	StationID     uuid.UUID        `json:"station_id" validate:"uuid_required"`
	Date          string           `json:"date" validate:"required,bizdate"`
	PricePerLiter *decimal.Decimal `json:"price_per_liter" validate:"omitempty,gt=0"`
	Note          string           `json:"note"`
}

type dailyRecordService struct {
	db          *gorm.DB
	recordRepo  repository.DailyRecordRepository
	stationRepo repository.StationRepository
	auditRepo   repository.AuditRepository
	cache       SummaryCache
	log         *zap.Logger
}

func NewDailyRecordService(db *gorm.DB, recordRepo repository.DailyRecordRepository, stationRepo repository.StationRepository,
	auditRepo repository.AuditRepository, cache SummaryCache, log *zap.Logger) DailyRecordService {
	if cache == nil {
		cache = nopCache{}
	}
	return &dailyRecordService{
		db:          db,
		recordRepo:  recordRepo,
		stationRepo: stationRepo,
		auditRepo:   auditRepo,
		cache:       cache,
		log:         log.Named("daily_record"),
	}
}

func (s *dailyRecordService) Create(ctx context.Context, actor Actor, req *CreateDailyRecordRequest) (*model.DailyRecord, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if err := actor.requireStation(req.StationID); err != nil {
		return nil, err
	}

	station, err := s.stationRepo.FindByID(ctx, req.StationID)
	if err != nil {
		return nil, notFound("station", err)
	}

	if existing, err := s.recordRepo.FindByStationAndDate(ctx, req.StationID, req.Date); err == nil && existing != nil {
		return nil, conflict("daily record for %s already exists (id %s)", req.Date, existing.ID)
	}

	price := station.DefaultPricePerLiter
	if req.PricePerLiter != nil {
		price = req.PricePerLiter.Round(2)
	}

	record := &model.DailyRecord{
		StationID:     req.StationID,
		Date:          req.Date,
		PricePerLiter: price,
		Note:          req.Note,
	}
	record.CreatedBy = actor.ID()
	record.UpdatedBy = actor.ID()

	if err := s.recordRepo.Create(ctx, record); err != nil {
		// Lost the race against a concurrent create for the same date
		if isUniqueViolation(err) {
			return nil, conflict("daily record for %s already exists", req.Date)
		}
		return nil, err
	}

	s.log.Info("daily record created",
		zap.String("station_id", req.StationID.String()),
		zap.String("date", req.Date),
		zap.String("daily_record_id", record.ID.String()))
	return record, nil
}

func (s *dailyRecordService) ListByMonth(ctx context.Context, actor Actor, stationID uuid.UUID, month string) ([]model.DailyRecord, error) {
	if err := actor.requireStation(stationID); err != nil {
		return nil, err
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, invalid("month must be YYYY-MM")
	}
	return s.recordRepo.ListByMonth(ctx, stationID, month)
}

// Delete removes a daily record that nothing depends on; any transaction or
// shift referencing it aborts the delete with a conflict.
func (s *dailyRecordService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.requireAdmin("deleting a daily record"); err != nil {
		return err
	}

	var stationID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.DailyRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			return notFound("daily record", err)
		}
		stationID = record.StationID

		txCount, err := s.recordRepo.CountTransactions(tx, id)
		if err != nil {
			return err
		}
		if txCount > 0 {
			return conflict("daily record %s has %d transactions", record.Date, txCount)
		}
		shiftCount, err := s.recordRepo.CountShifts(tx, id)
		if err != nil {
			return err
		}
		if shiftCount > 0 {
			return conflict("daily record %s has %d shifts", record.Date, shiftCount)
		}

		if err := s.recordRepo.Delete(tx, id); err != nil {
			return err
		}
		return appendAudit(tx, s.auditRepo, actor, model.AuditDailyRecordDelete, "daily_record", id.String(), record, nil)
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) {
			s.log.Error("daily record delete failed", zap.String("daily_record_id", id.String()), zap.Error(err))
		}
		return err
	}

	if err := s.cache.InvalidateStation(ctx, stationID); err != nil {
		s.log.Warn("cache invalidation failed", zap.Error(err))
	}
	s.log.Info("daily record deleted", zap.String("daily_record_id", id.String()))
	return nil
}
