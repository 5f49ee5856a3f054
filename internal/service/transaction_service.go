package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/reconcile"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TransactionService interface {
	Create(ctx context.Context, actor Actor, req *CreateTransactionRequest) (*CreateTransactionResult, error)
	List(ctx context.Context, actor Actor, filter repository.TransactionFilter) ([]model.Transaction, int64, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Transaction, error)
	Void(ctx context.Context, actor Actor, id uuid.UUID, req *VoidTransactionRequest) (*model.Transaction, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type CreateTransactionRequest struct {
	StationID     uuid.UUID           `json:"station_id" validate:"uuid_required"`
	ShiftID       *uuid.UUID          `json:"shift_id"`
	SoldAt        *time.Time          `json:"sold_at"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH CREDIT TRANSFER CARD BOX_TRUCK"`
	Liters        decimal.Decimal     `json:"liters" validate:"gt=0"`
	PricePerLiter *decimal.Decimal    `json:"price_per_liter" validate:"omitempty,gt=0"`
	Amount        *decimal.Decimal    `json:"amount" validate:"omitempty,gte=0"`
	OwnerID       *uuid.UUID          `json:"owner_id"`
	TruckID       *uuid.UUID          `json:"truck_id"`
	LicensePlate  string              `json:"license_plate" validate:"max=32"`
	BillBook      string              `json:"bill_book" validate:"max=32"`
	BillNumber    string              `json:"bill_number" validate:"max=32"`
	Note          string              `json:"note"`
}

type CreateTransactionResult struct {
	Transaction *model.Transaction `json:"transaction"`
	Warnings    []string           `json:"warnings,omitempty"`
}

type VoidTransactionRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type transactionService struct {
	db          *gorm.DB
	txRepo      repository.TransactionRepository
	shiftRepo   repository.ShiftRepository
	stationRepo repository.StationRepository
	ownerRepo   repository.OwnerRepository
	auditRepo   repository.AuditRepository
	events      EventBroadcaster
	cache       SummaryCache
	log         *zap.Logger
	now         func() time.Time
}

func NewTransactionService(db *gorm.DB, txRepo repository.TransactionRepository, shiftRepo repository.ShiftRepository,
	stationRepo repository.StationRepository, ownerRepo repository.OwnerRepository, auditRepo repository.AuditRepository,
	events EventBroadcaster, cache SummaryCache, log *zap.Logger) TransactionService {
	if events == nil {
		events = nopBroadcaster{}
	}
	if cache == nil {
		cache = nopCache{}
	}
	return &transactionService{
		db:          db,
		txRepo:      txRepo,
		shiftRepo:   shiftRepo,
		stationRepo: stationRepo,
		ownerRepo:   ownerRepo,
		auditRepo:   auditRepo,
		events:      events,
		cache:       cache,
		log:         log.Named("transaction"),
		now:         time.Now,
	}
}

func (s *transactionService) Create(ctx context.Context, actor Actor, req *CreateTransactionRequest) (*CreateTransactionResult, error) {
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

	plate := NormalizePlate(req.LicensePlate)
	ownerID := req.OwnerID
	if req.TruckID != nil {
		truck, err := s.ownerRepo.FindTruck(ctx, *req.TruckID)
		if err != nil {
			return nil, notFound("truck", err)
		}
		if ownerID == nil {
			ownerID = &truck.OwnerID
		} else if *ownerID != truck.OwnerID {
			return nil, invalid("truck %s does not belong to the selected owner", truck.LicensePlate)
		}
		if plate == "" {
			plate = NormalizePlate(truck.LicensePlate)
		}
	}
	if ownerID != nil {
		if _, err := s.ownerRepo.FindByID(ctx, *ownerID); err != nil {
			return nil, notFound("owner", err)
		}
	}
	if req.PaymentMethod == model.PayCredit && ownerID == nil {
		return nil, invalid("a credit sale requires an owner")
	}

	liters := req.Liters.Round(reconcile.MoneyPlaces)
	if !liters.IsPositive() {
		return nil, invalid("liters must be at least 0.01")
	}

	soldAt := s.now()
	if req.SoldAt != nil {
		soldAt = *req.SoldAt
	}

	txn := &model.Transaction{
		StationID:     station.ID,
		SaleDate:      model.BusinessDate(soldAt),
		SoldAt:        soldAt,
		PaymentMethod: req.PaymentMethod,
		Liters:        liters,
		OwnerID:       ownerID,
		TruckID:       req.TruckID,
		LicensePlate:  plate,
		BillBook:      req.BillBook,
		BillNumber:    req.BillNumber,
		Note:          req.Note,
	}
	txn.CreatedBy = actor.ID()
	txn.UpdatedBy = actor.ID()

	var warnings []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shift, err := s.resolveShift(tx, station.ID, req.ShiftID)
		if err != nil {
			return err
		}

		price := station.DefaultPricePerLiter
		if shift != nil {
			txn.ShiftID = &shift.ID
			price = shift.PricePerLiter
			if shift.Date == txn.SaleDate {
				txn.DailyRecordID = &shift.DailyRecordID
			}
		}
		if req.PricePerLiter != nil {
			price = *req.PricePerLiter
		}
		txn.PricePerLiter = price.Round(reconcile.MoneyPlaces)
		if req.Amount != nil {
			txn.Amount = req.Amount.Round(reconcile.MoneyPlaces)
		} else {
			txn.Amount = txn.Liters.Mul(txn.PricePerLiter).Round(reconcile.MoneyPlaces)
		}

		if !IsPlaceholderPlate(plate) {
			candidates, err := s.txRepo.FindDuplicateCandidates(tx, station.ID, txn.SaleDate, plate, txn.PaymentMethod)
			if err != nil {
				return err
			}
			if dup := FindDuplicate(txn, candidates); dup != nil {
				return conflict("duplicate of transaction %s: plate %s, amount %s, %s, bill %s/%s on %s",
					dup.ID, dup.LicensePlate, dup.Amount.StringFixed(2), dup.PaymentMethod,
					orDash(dup.BillBook), orDash(dup.BillNumber), dup.SaleDate)
			}
		}

		if txn.HasBill() {
			sameBill, err := s.txRepo.FindByBill(tx, station.ID, txn.BillBook, txn.BillNumber)
			if err != nil {
				return err
			}
			for _, other := range BillCollisions(txn, sameBill) {
				warnings = append(warnings, fmt.Sprintf("bill %s/%s is also used by transaction %s (plate %s)",
					txn.BillBook, txn.BillNumber, other.ID, orDash(other.LicensePlate)))
			}
		}

		return s.txRepo.Create(tx, txn)
	})
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		s.log.Warn("bill number collision", zap.String("transaction_id", txn.ID.String()), zap.String("detail", w))
	}
	s.log.Info("transaction created",
		zap.String("station_id", txn.StationID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.String("payment_method", string(txn.PaymentMethod)),
		zap.String("amount", txn.Amount.StringFixed(2)))
	s.afterChange(ctx, actor, txn, "transaction_created")

	return &CreateTransactionResult{Transaction: txn, Warnings: warnings}, nil
}

// resolveShift returns the explicitly requested shift, or the station's open
// shift when none was given. A sale outside any shift is allowed.
func (s *transactionService) resolveShift(tx *gorm.DB, stationID uuid.UUID, shiftID *uuid.UUID) (*model.Shift, error) {
	if shiftID != nil {
		var shift model.Shift
		if err := tx.First(&shift, "id = ?", *shiftID).Error; err != nil {
			return nil, notFound("shift", err)
		}
		if shift.StationID != stationID {
			return nil, invalid("shift %s belongs to another station", shift.ID)
		}
		return &shift, nil
	}
	shift, err := s.shiftRepo.FindOpenShiftTx(tx, stationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return shift, err
}

func (s *transactionService) List(ctx context.Context, actor Actor, filter repository.TransactionFilter) ([]model.Transaction, int64, error) {
	scope, err := actor.scopeStation(filter.StationID)
	if err != nil {
		return nil, 0, err
	}
	filter.StationID = scope
	if filter.PaymentMethod != "" && !filter.PaymentMethod.Valid() {
		return nil, 0, invalid("unknown payment method %s", filter.PaymentMethod)
	}
	return s.txRepo.List(ctx, filter)
}

func (s *transactionService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Transaction, error) {
	txn, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("transaction", err)
	}
	if err := actor.requireStation(txn.StationID); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *transactionService) Void(ctx context.Context, actor Actor, id uuid.UUID, req *VoidTransactionRequest) (*model.Transaction, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	now := s.now()
	var voided model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn model.Transaction
		if err := tx.First(&txn, "id = ?", id).Error; err != nil {
			return notFound("transaction", err)
		}
		if err := actor.requireStation(txn.StationID); err != nil {
			return err
		}
		if txn.IsVoided {
			return conflict("transaction %s was already voided: %s", txn.ID, txn.VoidReason)
		}

		if err := s.txRepo.Void(tx, id, req.Reason, actor.ID(), now); err != nil {
			return err
		}
		voided = txn
		voided.IsVoided = true
		voided.VoidReason = req.Reason
		voided.VoidedAt = &now
		voided.VoidedBy = actor.ID()
		return appendAudit(tx, s.auditRepo, actor, model.AuditTransactionVoid, "transaction", id.String(), txn, voided)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transaction voided", zap.String("transaction_id", id.String()), zap.String("reason", req.Reason))
	s.afterChange(ctx, actor, &voided, "transaction_voided")
	return &voided, nil
}

func (s *transactionService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.requireAdmin("deleting a transaction"); err != nil {
		return err
	}

	var deleted model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", id).Error; err != nil {
			return notFound("transaction", err)
		}
		if err := s.txRepo.SoftDelete(tx, id, actor.ID()); err != nil {
			return err
		}
		return appendAudit(tx, s.auditRepo, actor, model.AuditTransactionDelete, "transaction", id.String(), deleted, nil)
	})
	if err != nil {
		return err
	}

	s.log.Info("transaction deleted", zap.String("transaction_id", id.String()))
	s.afterChange(ctx, actor, &deleted, "transaction_deleted")
	return nil
}

func (s *transactionService) afterChange(ctx context.Context, actor Actor, txn *model.Transaction, action string) {
	if err := s.cache.InvalidateStation(ctx, txn.StationID); err != nil {
		s.log.Warn("cache invalidation failed", zap.String("station_id", txn.StationID.String()), zap.Error(err))
	}
	s.events.Publish(txn.StationID, "transaction_update", map[string]interface{}{
		"action": action,
		"transaction": map[string]interface{}{
			"id":             txn.ID,
			"sale_date":      txn.SaleDate,
			"payment_method": txn.PaymentMethod,
			"amount":         txn.Amount,
			"license_plate":  txn.LicensePlate,
			"is_voided":      txn.IsVoided,
		},
		"user": map[string]interface{}{
			"id":   actor.ID(),
			"name": actor.Name,
		},
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
