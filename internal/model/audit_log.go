package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditStationPriceUpdate AuditAction = "STATION_PRICE_UPDATE"
	AuditDailyRecordDelete  AuditAction = "DAILY_RECORD_DELETE"
	AuditMeterCorrection    AuditAction = "METER_CORRECTION"
	AuditTransactionVoid    AuditAction = "TRANSACTION_VOID"
	AuditTransactionDelete  AuditAction = "TRANSACTION_DELETE"
	AuditOwnerMerge         AuditAction = "OWNER_MERGE"
	AuditUserCreate         AuditAction = "USER_CREATE"
	AuditUserUpdate         AuditAction = "USER_UPDATE"
	AuditUserDelete         AuditAction = "USER_DELETE"
	AuditUserPrivileges     AuditAction = "USER_PRIVILEGES"
)

// AuditLog is append-only: rows are inserted inside the transaction of the
// mutation they describe and never updated or deleted.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	Action    AuditAction    `gorm:"type:varchar(50);not null;index" json:"action"`
	Model     string         `gorm:"type:varchar(50);not null;index:idx_audit_record" json:"model"`
	RecordID  string         `gorm:"type:varchar(64);not null;index:idx_audit_record" json:"record_id"`
	OldData   datatypes.JSON `json:"old_data,omitempty"`
	NewData   datatypes.JSON `json:"new_data,omitempty"`
	ActorID   string         `gorm:"type:varchar(64);not null;index" json:"actor_id"`
	ActorName string         `gorm:"type:varchar(255)" json:"actor_name,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// Snapshot marshals v for OldData/NewData; nil stays empty
func Snapshot(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
