package service

import (
	"context"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"

	"gorm.io/gorm"
)

type AuditService interface {
	List(ctx context.Context, actor Actor, filter repository.AuditFilter) ([]model.AuditLog, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, actor Actor, filter repository.AuditFilter) ([]model.AuditLog, error) {
	if err := actor.requireAdmin("reading the audit log"); err != nil {
		return nil, err
	}
	return s.auditRepo.List(ctx, filter)
}

// appendAudit writes the audit row with the same tx as the mutation it describes,
// so both commit or roll back together.
func appendAudit(tx *gorm.DB, repo repository.AuditRepository, actor Actor, action model.AuditAction,
	modelName, recordID string, oldData, newData interface{}) error {
	return repo.Append(tx, &model.AuditLog{
		Action:    action,
		Model:     modelName,
		RecordID:  recordID,
		OldData:   model.Snapshot(oldData),
		NewData:   model.Snapshot(newData),
		ActorID:   actor.ID(),
		ActorName: actor.Name,
	})
}
