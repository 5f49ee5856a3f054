package service

import (
	"context"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OwnerService interface {
	Create(ctx context.Context, actor Actor, req *CreateOwnerRequest) (*model.Owner, error)
	List(ctx context.Context, search string) ([]model.Owner, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Owner, error)
	AddTruck(ctx context.Context, actor Actor, ownerID uuid.UUID, req *AddTruckRequest) (*model.Truck, error)
	Merge(ctx context.Context, actor Actor, req *MergeOwnersRequest) (*MergeResult, error)
	CreditSummary(ctx context.Context, ownerID uuid.UUID) (*CreditSummary, error)
}

type CreateOwnerRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Company     string `json:"company" validate:"max=255"`
	Note        string `json:"note"`
}

type AddTruckRequest struct {
	LicensePlate string `json:"license_plate" validate:"required,max=32"`
	Description  string `json:"description" validate:"max=255"`
}

type MergeOwnersRequest struct {
	SourceOwnerID uuid.UUID `json:"source_owner_id" validate:"uuid_required"`
	TargetOwnerID uuid.UUID `json:"target_owner_id" validate:"uuid_required"`
}

type MergeResult struct {
	TargetOwnerID      uuid.UUID `json:"target_owner_id"`
	TrucksMoved        int64     `json:"trucks_moved"`
	TrucksFolded       int       `json:"trucks_folded"`
	TransactionsMoved  int64     `json:"transactions_moved"`
	TargetTrucks       int       `json:"target_trucks"`
	TargetTransactions int64     `json:"target_transactions"`
}

type CreditSummary struct {
	OwnerID  uuid.UUID       `json:"owner_id"`
	Name     string          `json:"name"`
	Total    decimal.Decimal `json:"total"`
	Liters   decimal.Decimal `json:"liters"`
	Count    int             `json:"count"`
	LastSale *time.Time      `json:"last_sale,omitempty"`
}

type ownerService struct {
	db        *gorm.DB
	ownerRepo repository.OwnerRepository
	auditRepo repository.AuditRepository
	log       *zap.Logger
}

func NewOwnerService(db *gorm.DB, ownerRepo repository.OwnerRepository, auditRepo repository.AuditRepository, log *zap.Logger) OwnerService {
	return &ownerService{
		db:        db,
		ownerRepo: ownerRepo,
		auditRepo: auditRepo,
		log:       log.Named("owner"),
	}
}

func (s *ownerService) Create(ctx context.Context, actor Actor, req *CreateOwnerRequest) (*model.Owner, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	owner := &model.Owner{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Company:     req.Company,
		Note:        req.Note,
	}
	owner.CreatedBy = actor.ID()
	owner.UpdatedBy = actor.ID()
	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		return nil, err
	}
	s.log.Info("owner created", zap.String("owner_id", owner.ID.String()))
	return owner, nil
}

func (s *ownerService) List(ctx context.Context, search string) ([]model.Owner, error) {
	return s.ownerRepo.FindAll(ctx, search)
}

func (s *ownerService) Get(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	owner, err := s.ownerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("owner", err)
	}
	return owner, nil
}

func (s *ownerService) AddTruck(ctx context.Context, actor Actor, ownerID uuid.UUID, req *AddTruckRequest) (*model.Truck, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	plate := NormalizePlate(req.LicensePlate)
	if IsPlaceholderPlate(plate) {
		return nil, invalid("license plate %q is not a real plate", req.LicensePlate)
	}
	if _, err := s.ownerRepo.FindByID(ctx, ownerID); err != nil {
		return nil, notFound("owner", err)
	}

	taken, err := s.ownerRepo.PlateTaken(ctx, ownerID, plate)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("owner already has a truck with plate %s", plate)
	}

	truck := &model.Truck{OwnerID: ownerID, LicensePlate: plate, Description: req.Description}
	truck.CreatedBy = actor.ID()
	truck.UpdatedBy = actor.ID()
	if err := s.ownerRepo.CreateTruck(ctx, truck); err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("owner already has a truck with plate %s", plate)
		}
		return nil, err
	}
	s.log.Info("truck added", zap.String("owner_id", ownerID.String()), zap.String("plate", plate))
	return truck, nil
}

// Merge moves every truck and transaction of the source owner to the target
// and deletes the source, all in one database transaction. Any failure rolls
// the whole merge back.
func (s *ownerService) Merge(ctx context.Context, actor Actor, req *MergeOwnersRequest) (*MergeResult, error) {
	if err := actor.requireAdmin("merging owners"); err != nil {
		return nil, err
	}
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if req.SourceOwnerID == req.TargetOwnerID {
		return nil, invalid("cannot merge an owner into itself")
	}

	result := &MergeResult{TargetOwnerID: req.TargetOwnerID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ownerRepo.LockTx(tx, req.SourceOwnerID, req.TargetOwnerID); err != nil {
			return err
		}
		source, err := s.ownerRepo.FindByIDTx(tx, req.SourceOwnerID)
		if err != nil {
			return notFound("source owner", err)
		}
		target, err := s.ownerRepo.FindByIDTx(tx, req.TargetOwnerID)
		if err != nil {
			return notFound("target owner", err)
		}

		// a plate both owners carry is the same vehicle: keep the target's truck
		targetPlates := make(map[string]uuid.UUID, len(target.Trucks))
		for _, t := range target.Trucks {
			targetPlates[NormalizePlate(t.LicensePlate)] = t.ID
		}
		for _, t := range source.Trucks {
			into, dup := targetPlates[NormalizePlate(t.LicensePlate)]
			if !dup {
				continue
			}
			if err := s.ownerRepo.FoldTruck(tx, t.ID, into, actor.ID()); err != nil {
				return err
			}
			result.TrucksFolded++
		}

		if result.TrucksMoved, err = s.ownerRepo.ReassignTrucks(tx, source.ID, target.ID, actor.ID()); err != nil {
			return err
		}
		if result.TransactionsMoved, err = s.ownerRepo.ReassignTransactions(tx, source.ID, target.ID, actor.ID()); err != nil {
			return err
		}
		if err := s.ownerRepo.Delete(tx, source.ID, actor.ID()); err != nil {
			return err
		}

		merged, err := s.ownerRepo.FindByIDTx(tx, target.ID)
		if err != nil {
			return err
		}
		result.TargetTrucks = len(merged.Trucks)
		if result.TargetTransactions, err = s.ownerRepo.CountTransactions(tx, target.ID); err != nil {
			return err
		}

		return appendAudit(tx, s.auditRepo, actor, model.AuditOwnerMerge, "owner", source.ID.String(), source,
			map[string]interface{}{
				"target_owner_id":    target.ID,
				"trucks_moved":       result.TrucksMoved,
				"trucks_folded":      result.TrucksFolded,
				"transactions_moved": result.TransactionsMoved,
			})
	})
	if err != nil {
		if !isExpected(err) {
			s.log.Error("owner merge rolled back",
				zap.String("source_owner_id", req.SourceOwnerID.String()),
				zap.String("target_owner_id", req.TargetOwnerID.String()),
				zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("owners merged",
		zap.String("source_owner_id", req.SourceOwnerID.String()),
		zap.String("target_owner_id", req.TargetOwnerID.String()),
		zap.Int64("trucks_moved", result.TrucksMoved),
		zap.Int("trucks_folded", result.TrucksFolded),
		zap.Int64("transactions_moved", result.TransactionsMoved))
	return result, nil
}

func (s *ownerService) CreditSummary(ctx context.Context, ownerID uuid.UUID) (*CreditSummary, error) {
	owner, err := s.ownerRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, notFound("owner", err)
	}
	sales, err := s.ownerRepo.CreditSales(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sum := summarizeSales(sales)
	return &CreditSummary{
		OwnerID:  owner.ID,
		Name:     owner.Name,
		Total:    sum.Total,
		Liters:   sum.Liters,
		Count:    sum.Count,
		LastSale: sum.LastSale,
	}, nil
}
