package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/reconcile"
	"go-fuelstation-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DashboardService interface {
	Summary(ctx context.Context, actor Actor, stationID uuid.UUID, date string) (*DashboardSummary, error)
	VarianceAlerts(ctx context.Context, actor Actor, stationID *uuid.UUID, from, to string) ([]model.Reconciliation, error)
}

type ShiftBrief struct {
	ID          uuid.UUID         `json:"id"`
	Date        string            `json:"date"`
	ShiftNumber int               `json:"shift_number"`
	Status      model.ShiftStatus `json:"status"`
	Version     int               `json:"version"`
	OpenedAt    time.Time         `json:"opened_at"`
}

type GaugeStatus struct {
	Tank       int                 `json:"tank"`
	Percentage decimal.Decimal     `json:"percentage"`
	Phase      model.GaugePhase    `json:"phase"`
	Band       reconcile.GaugeBand `json:"band"`
}

type DashboardSummary struct {
	StationID       uuid.UUID              `json:"station_id"`
	Date            string                 `json:"date"`
	Sales           SalesSummary           `json:"sales"`
	OpenShift       *ShiftBrief            `json:"open_shift,omitempty"`
	Reconciliations []model.Reconciliation `json:"reconciliations"`
	Gauges          []GaugeStatus          `json:"gauges"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

const recentReconciliations = 10

type dashboardService struct {
	db        *gorm.DB
	txRepo    repository.TransactionRepository
	shiftRepo repository.ShiftRepository
	reconRepo repository.ReconciliationRepository
	policy    reconcile.Policy
	cache     SummaryCache
	cacheTTL  time.Duration
	log       *zap.Logger
}

func NewDashboardService(db *gorm.DB, txRepo repository.TransactionRepository, shiftRepo repository.ShiftRepository,
	reconRepo repository.ReconciliationRepository, policy reconcile.Policy, cache SummaryCache, cacheTTL time.Duration,
	log *zap.Logger) DashboardService {
	if cache == nil {
		cache = nopCache{}
	}
	return &dashboardService{
		db:        db,
		txRepo:    txRepo,
		shiftRepo: shiftRepo,
		reconRepo: reconRepo,
		policy:    policy,
		cache:     cache,
		cacheTTL:  cacheTTL,
		log:       log.Named("dashboard"),
	}
}

// summaryKey starts with the station id so InvalidateStation can find it
func summaryKey(stationID uuid.UUID, date string) string {
	return fmt.Sprintf("%s:%s", stationID, date)
}

func (s *dashboardService) Summary(ctx context.Context, actor Actor, stationID uuid.UUID, date string) (*DashboardSummary, error) {
	if err := actor.requireStation(stationID); err != nil {
		return nil, err
	}
	if date == "" {
		date = model.BusinessDate(time.Now())
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, invalid("date must be YYYY-MM-DD")
	}

	key := summaryKey(stationID, date)
	var cached DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	sales, _, err := s.txRepo.List(ctx, repository.TransactionFilter{StationID: &stationID, From: date, To: date})
	if err != nil {
		return nil, err
	}
	summary := &DashboardSummary{
		StationID:   stationID,
		Date:        date,
		Sales:       summarizeSales(sales),
		GeneratedAt: time.Now(),
	}

	open, err := s.shiftRepo.FindOpenShift(ctx, stationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	gaugeSource := open
	if open != nil {
		summary.OpenShift = &ShiftBrief{
			ID:          open.ID,
			Date:        open.Date,
			ShiftNumber: open.ShiftNumber,
			Status:      open.Status,
			Version:     open.Version,
			OpenedAt:    open.OpenedAt,
		}
	} else {
		if gaugeSource, err = s.shiftRepo.FindLastClosed(s.db.WithContext(ctx), stationID); err != nil {
			return nil, err
		}
	}
	if gaugeSource != nil {
		summary.Gauges = s.latestGauges(gaugeSource)
	}

	summary.Reconciliations, err = s.reconRepo.List(ctx, repository.ReconciliationFilter{
		StationID: &stationID,
		To:        date,
		Limit:     recentReconciliations,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, nil
}

// latestGauges picks the END reading of each tank when present, otherwise START
func (s *dashboardService) latestGauges(shift *model.Shift) []GaugeStatus {
	latest := map[int]model.GaugeReading{}
	var order []int
	for _, g := range shift.GaugeReadings {
		prev, seen := latest[g.Tank]
		if !seen {
			order = append(order, g.Tank)
		}
		if !seen || (prev.Phase == model.GaugeStart && g.Phase == model.GaugeEnd) {
			latest[g.Tank] = g
		}
	}
	out := make([]GaugeStatus, 0, len(order))
	for _, tank := range order {
		g := latest[tank]
		out = append(out, GaugeStatus{
			Tank:       tank,
			Percentage: g.Percentage,
			Phase:      g.Phase,
			Band:       s.policy.GaugeBand(g.Percentage),
		})
	}
	return out
}

// VarianceAlerts lists closed shifts whose variance reached WARNING or CRITICAL
func (s *dashboardService) VarianceAlerts(ctx context.Context, actor Actor, stationID *uuid.UUID, from, to string) ([]model.Reconciliation, error) {
	scope, err := actor.scopeStation(stationID)
	if err != nil {
		return nil, err
	}
	return s.reconRepo.List(ctx, repository.ReconciliationFilter{
		StationID:  scope,
		From:       from,
		To:         to,
		Severities: []string{string(reconcile.SeverityWarning), string(reconcile.SeverityCritical)},
	})
}
