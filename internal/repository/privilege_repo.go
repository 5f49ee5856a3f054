package repository

import (
	"context"

	"go-fuelstation-pos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PrivilegeRepository interface {
	FindAll(ctx context.Context) ([]model.Privilege, error)
	FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error)
	Seed(ctx context.Context) (int64, error)
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db: db}
}

func (r *privilegeRepo) FindAll(ctx context.Context) ([]model.Privilege, error) {
	var privileges []model.Privilege
	err := r.db.WithContext(ctx).Order("code").Find(&privileges).Error
	return privileges, err
}

func (r *privilegeRepo) FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error) {
	if len(codes) == 0 {
		return []model.Privilege{}, nil
	}
	var privileges []model.Privilege
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&privileges).Error
	return privileges, err
}

// Seed inserts the fuel-station privilege catalogue, leaving existing codes
// untouched, and reports how many were new.
func (r *privilegeRepo) Seed(ctx context.Context) (int64, error) {
	catalogue := make([]model.Privilege, len(model.DefaultPrivileges))
	copy(catalogue, model.DefaultPrivileges)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&catalogue)
	return res.RowsAffected, res.Error
}
