package repository

import (
	"context"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OwnerRepository interface {
	Create(ctx context.Context, owner *model.Owner) error
	FindAll(ctx context.Context, search string) ([]model.Owner, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Owner, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Owner, error)
	LockTx(tx *gorm.DB, ids ...uuid.UUID) error

	CreateTruck(ctx context.Context, truck *model.Truck) error
	FindTruck(ctx context.Context, id uuid.UUID) (*model.Truck, error)
	PlateTaken(ctx context.Context, ownerID uuid.UUID, plate string) (bool, error)

	CountTransactions(tx *gorm.DB, ownerID uuid.UUID) (int64, error)
	ReassignTrucks(tx *gorm.DB, fromID, toID uuid.UUID, updatedBy string) (int64, error)
	ReassignTransactions(tx *gorm.DB, fromID, toID uuid.UUID, updatedBy string) (int64, error)
	FoldTruck(tx *gorm.DB, fromTruckID, intoTruckID uuid.UUID, by string) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error

	CreditSales(ctx context.Context, ownerID uuid.UUID) ([]model.Transaction, error)
}

type ownerRepo struct {
	db *gorm.DB
}

func NewOwnerRepo(db *gorm.DB) OwnerRepository {
	return &ownerRepo{db}
}

func (r *ownerRepo) Create(ctx context.Context, owner *model.Owner) error {
	return r.db.WithContext(ctx).Create(owner).Error
}

func (r *ownerRepo) FindAll(ctx context.Context, search string) ([]model.Owner, error) {
	var owners []model.Owner
	query := r.db.WithContext(ctx).Preload("Trucks")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	err := query.Order("name ASC").Find(&owners).Error
	return owners, err
}

func (r *ownerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *ownerRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Owner, error) {
	var owner model.Owner
	err := tx.Preload("Trucks", func(db *gorm.DB) *gorm.DB { return db.Order("license_plate ASC") }).
		First(&owner, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *ownerRepo) CreateTruck(ctx context.Context, truck *model.Truck) error {
	return r.db.WithContext(ctx).Create(truck).Error
}

func (r *ownerRepo) FindTruck(ctx context.Context, id uuid.UUID) (*model.Truck, error) {
	var truck model.Truck
	if err := r.db.WithContext(ctx).First(&truck, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *ownerRepo) PlateTaken(ctx context.Context, ownerID uuid.UUID, plate string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Truck{}).
		Where("owner_id = ? AND license_plate = ?", ownerID, plate).
		Count(&count).Error
	return count > 0, err
}

func (r *ownerRepo) CountTransactions(tx *gorm.DB, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.Transaction{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *ownerRepo) ReassignTrucks(tx *gorm.DB, fromID, toID uuid.UUID, updatedBy string) (int64, error) {
	res := tx.Model(&model.Truck{}).Where("owner_id = ?", fromID).Updates(map[string]interface{}{
		"owner_id":   toID,
		"updated_by": updatedBy,
	})
	return res.RowsAffected, res.Error
}

// ReassignTransactions also moves soft-deleted rows so nothing keeps pointing at the source
func (r *ownerRepo) ReassignTransactions(tx *gorm.DB, fromID, toID uuid.UUID, updatedBy string) (int64, error) {
	res := tx.Unscoped().Model(&model.Transaction{}).Where("owner_id = ?", fromID).Updates(map[string]interface{}{
		"owner_id":   toID,
		"updated_by": updatedBy,
	})
	return res.RowsAffected, res.Error
}

// FoldTruck points every sale of fromTruckID at intoTruckID and retires fromTruckID
func (r *ownerRepo) FoldTruck(tx *gorm.DB, fromTruckID, intoTruckID uuid.UUID, by string) error {
	err := tx.Unscoped().Model(&model.Transaction{}).Where("truck_id = ?", fromTruckID).Updates(map[string]interface{}{
		"truck_id":   intoTruckID,
		"updated_by": by,
	}).Error
	if err != nil {
		return err
	}
	if err := tx.Model(&model.Truck{}).Where("id = ?", fromTruckID).Update("deleted_by", by).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Truck{}, "id = ?", fromTruckID).Error
}

func (r *ownerRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.Owner{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Owner{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ownerRepo) CreditSales(ctx context.Context, ownerID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND payment_method = ? AND is_voided = ?", ownerID, model.PayCredit, false).
		Order("sold_at ASC").
		Find(&transactions).Error
	return transactions, err
}

// LockTx takes row locks on the given owners until tx ends
func (r *ownerRepo) LockTx(tx *gorm.DB, ids ...uuid.UUID) error {
	var owners []model.Owner
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&owners).Error
}
