package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/reconcile"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type publishedEvent struct {
	stationID uuid.UUID
	event     string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingEvents) Publish(stationID uuid.UUID, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{stationID: stationID, event: event})
}

type recordingAlerts struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *recordingAlerts) PublishAlert(_ context.Context, alert Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

type memArchive struct {
	objects map[string][]byte
}

func (m *memArchive) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://archive.test/" + key, nil
}

type testEnv struct {
	db      *gorm.DB
	events  *recordingEvents
	alerts  *recordingAlerts
	archive *memArchive

	shifts   ShiftService
	txs      TransactionService
	owners   OwnerService
	records  DailyRecordService
	stations StationService
	reports  ReportService
	dash     DashboardService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()

	stationRepo := repository.NewStationRepo(db)
	recordRepo := repository.NewDailyRecordRepo(db)
	shiftRepo := repository.NewShiftRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	ownerRepo := repository.NewOwnerRepo(db)
	reconRepo := repository.NewReconciliationRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	env := &testEnv{
		db:      db,
		events:  &recordingEvents{},
		alerts:  &recordingAlerts{},
		archive: &memArchive{},
	}
	env.shifts = NewShiftService(ShiftDeps{
		DB:       db,
		Shifts:   shiftRepo,
		Stations: stationRepo,
		Records:  recordRepo,
		Sales:    txRepo,
		Audit:    auditRepo,
		Policy:   reconcile.DefaultPolicy(),
		Events:   env.events,
		Alerts:   env.alerts,
		Log:      log,
	})
	env.txs = NewTransactionService(db, txRepo, shiftRepo, stationRepo, ownerRepo, auditRepo, env.events, nil, log)
	env.owners = NewOwnerService(db, ownerRepo, auditRepo, log)
	env.records = NewDailyRecordService(db, recordRepo, stationRepo, auditRepo, nil, log)
	env.stations = NewStationService(db, stationRepo, auditRepo, log)
	env.reports = NewReportService(txRepo, shiftRepo, stationRepo, env.archive, log)
	env.dash = NewDashboardService(db, txRepo, shiftRepo, reconRepo, reconcile.DefaultPolicy(), nil, time.Minute, log)
	return env
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Name: "admin", RoleCode: model.RoleAdmin}
}

func staffActor(stationID uuid.UUID) Actor {
	id := stationID
	return Actor{UserID: uuid.New(), Name: "staff", RoleCode: model.RoleStaff, StationID: &id}
}
