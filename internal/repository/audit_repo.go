package repository

import (
	"context"

	"go-fuelstation-pos/internal/model"

	"gorm.io/gorm"
)

// AuditRepository only appends; there is no update or delete on purpose.
type AuditRepository interface {
	Append(tx *gorm.DB, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error)
}

type AuditFilter struct {
	Model    string
	RecordID string
	ActorID  string
	Limit    int
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Append(tx *gorm.DB, entry *model.AuditLog) error {
	return tx.Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	query := r.db.WithContext(ctx)
	if filter.Model != "" {
		query = query.Where("model = ?", filter.Model)
	}
	if filter.RecordID != "" {
		query = query.Where("record_id = ?", filter.RecordID)
	}
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
