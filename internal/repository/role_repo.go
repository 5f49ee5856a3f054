package repository

import (
	"context"

	"go-fuelstation-pos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	Seed(ctx context.Context) (map[string]int, error)
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Order("id").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Preload("Privileges").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// Seed creates ADMIN, MANAGER and STAFF and grants each role with no
// privileges its default set from model.PrivilegesForRole. Roles an admin
// has already edited keep their grants. Returns the grants made per role.
func (r *roleRepo) Seed(ctx context.Context) (map[string]int, error) {
	granted := map[string]int{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roles := make([]model.Role, len(model.DefaultRoles))
		copy(roles, model.DefaultRoles)
		if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Create(&roles).Error; err != nil {
			return err
		}

		var all []model.Privilege
		if err := tx.Find(&all).Error; err != nil {
			return err
		}
		for _, def := range model.DefaultRoles {
			var role model.Role
			if err := tx.Preload("Privileges").Where("code = ?", def.Code).First(&role).Error; err != nil {
				return err
			}
			if len(role.Privileges) > 0 {
				continue
			}
			defaults := model.PrivilegesForRole(role.Code, all)
			if len(defaults) == 0 {
				continue
			}
			if err := tx.Model(&role).Association("Privileges").Replace(defaults); err != nil {
				return err
			}
			granted[role.Code] = len(defaults)
		}
		return nil
	})
	return granted, err
}
