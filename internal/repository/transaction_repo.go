package repository

import (
	"context"
	"time"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, transaction *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)

	// FindDuplicateCandidates returns live, non-voided sales sharing station, date, plate and method
	FindDuplicateCandidates(tx *gorm.DB, stationID uuid.UUID, saleDate, plate string, method model.PaymentMethod) ([]model.Transaction, error)
	FindByBill(tx *gorm.DB, stationID uuid.UUID, billBook, billNumber string) ([]model.Transaction, error)
	FindByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Transaction, error)

	Void(tx *gorm.DB, id uuid.UUID, reason, voidedBy string, at time.Time) error
	SoftDelete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
}

// TransactionFilter narrows listings and report queries; zero values are ignored
type TransactionFilter struct {
	StationID     *uuid.UUID
	ShiftID       *uuid.UUID
	OwnerID       *uuid.UUID
	From          string // sale date, inclusive
	To            string // sale date, inclusive
	PaymentMethod model.PaymentMethod
	IncludeVoided bool
	Limit         int
	Offset        int
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Omit("Station", "Owner", "Truck").Create(transaction).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).Preload("Owner").Preload("Truck").First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func applyTransactionFilter(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.StationID != nil {
		query = query.Where("station_id = ?", *filter.StationID)
	}
	if filter.ShiftID != nil {
		query = query.Where("shift_id = ?", *filter.ShiftID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.From != "" {
		query = query.Where("sale_date >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("sale_date <= ?", filter.To)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if !filter.IncludeVoided {
		query = query.Where("is_voided = ?", false)
	}
	return query
}

// List returns one page plus the total row count for the filter
func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error) {
	var (
		transactions []model.Transaction
		total        int64
	)
	base := applyTransactionFilter(r.db.WithContext(ctx).Model(&model.Transaction{}), filter)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := applyTransactionFilter(r.db.WithContext(ctx), filter).Preload("Owner").Preload("Truck")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	err := query.Order("sold_at ASC").Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepo) FindDuplicateCandidates(tx *gorm.DB, stationID uuid.UUID, saleDate, plate string, method model.PaymentMethod) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := tx.
		Where("station_id = ? AND sale_date = ? AND license_plate = ? AND payment_method = ?", stationID, saleDate, plate, method).
		Where("is_voided = ?", false).
		Order("sold_at ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByBill(tx *gorm.DB, stationID uuid.UUID, billBook, billNumber string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := tx.
		Where("station_id = ? AND bill_book = ? AND bill_number = ?", stationID, billBook, billNumber).
		Where("is_voided = ?", false).
		Find(&transactions).Error
	return transactions, err
}

// FindByShift returns the live, non-voided sales of a shift
func (r *transactionRepo) FindByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND is_voided = ?", shiftID, false).
		Order("sold_at ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) Void(tx *gorm.DB, id uuid.UUID, reason, voidedBy string, at time.Time) error {
	return tx.Model(&model.Transaction{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_voided":   true,
		"void_reason": reason,
		"voided_at":   at,
		"voided_by":   voidedBy,
		"updated_by":  voidedBy,
	}).Error
}

func (r *transactionRepo) SoftDelete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.Transaction{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Transaction{}, "id = ?", id).Error
}
