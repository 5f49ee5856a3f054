package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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

type ShiftService interface {
	Open(ctx context.Context, actor Actor, req *OpenShiftRequest) (*model.Shift, error)
	FindOpenShift(ctx context.Context, actor Actor, stationID uuid.UUID) (*model.Shift, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Shift, error)
	List(ctx context.Context, actor Actor, filter repository.ShiftFilter) ([]model.Shift, error)

	RecordEndMeters(ctx context.Context, actor Actor, shiftID uuid.UUID, req *EndMetersRequest) (*model.Shift, error)
	RecordGauges(ctx context.Context, actor Actor, shiftID uuid.UUID, req *GaugesRequest) (*model.Shift, error)

	ClosePreview(ctx context.Context, actor Actor, shiftID uuid.UUID) (*ClosePreview, error)
	Close(ctx context.Context, actor Actor, shiftID uuid.UUID, req *CloseShiftRequest) (*CloseResult, error)

	CorrectMeter(ctx context.Context, actor Actor, shiftID uuid.UUID, nozzle int, req *CorrectMeterRequest) (*model.MeterReading, error)
}

type MeterInput struct {
	Nozzle  int             `json:"nozzle" validate:"required,gt=0"`
	Reading decimal.Decimal `json:"reading" validate:"gte=0"`
	Photos  []string        `json:"photos,omitempty"`
}

type GaugeInput struct {
	Tank       int             `json:"tank" validate:"required,gt=0"`
	Percentage decimal.Decimal `json:"percentage" validate:"gte=0,lte=100"`
}

type OpenShiftRequest struct {
	StationID   uuid.UUID    `json:"station_id" validate:"uuid_required"`
	ShiftNumber int          `json:"shift_number" validate:"required,oneof=1 2"`
	Date        string       `json:"date" validate:"omitempty,bizdate"` // defaults to today in Asia/Bangkok
	StartMeters []MeterInput `json:"start_meters" validate:"dive"`
	StartGauges []GaugeInput `json:"start_gauges" validate:"dive"`
	Note        string       `json:"note"`
}

type EndMetersRequest struct {
	Meters []MeterInput `json:"meters" validate:"required,min=1,dive"`
}

type GaugesRequest struct {
	Phase  model.GaugePhase `json:"phase" validate:"omitempty,oneof=START END"` // defaults to END
	Gauges []GaugeInput     `json:"gauges" validate:"required,min=1,dive"`
}

type CloseShiftRequest struct {
	Version          int             `json:"version" validate:"required,gt=0"`
	CashReceived     decimal.Decimal `json:"cash_received" validate:"gte=0"`
	CreditReceived   decimal.Decimal `json:"credit_received" validate:"gte=0"`
	CardReceived     decimal.Decimal `json:"card_received" validate:"gte=0"`
	TransferReceived decimal.Decimal `json:"transfer_received" validate:"gte=0"`
	OtherExpected    decimal.Decimal `json:"other_expected" validate:"gte=0"`
	Note             string          `json:"note"`
}

type CorrectMeterRequest struct {
	StartReading decimal.Decimal  `json:"start_reading" validate:"gte=0"`
	EndReading   *decimal.Decimal `json:"end_reading" validate:"omitempty,gte=0"`
	Reason       string           `json:"reason" validate:"required,min=3"`
}

// ClosePreview is what the closing staff sees before confirming: recorded
// sales as a pre-fill and the engine's judgment against that pre-fill.
type ClosePreview struct {
	ShiftID  uuid.UUID          `json:"shift_id"`
	Version  int                `json:"version"`
	Sales    SalesSummary       `json:"sales"`
	Prefill  reconcile.Received `json:"prefill"`
	Result   reconcile.Result   `json:"result"`
	Severity reconcile.Severity `json:"severity"`
}

type CloseResult struct {
	Shift          *model.Shift          `json:"shift"`
	Reconciliation *model.Reconciliation `json:"reconciliation"`
	Severity       reconcile.Severity    `json:"severity"`
}

type shiftService struct {
	db          *gorm.DB
	shiftRepo   repository.ShiftRepository
	stationRepo repository.StationRepository
	recordRepo  repository.DailyRecordRepository
	txRepo      repository.TransactionRepository
	auditRepo   repository.AuditRepository
	policy      reconcile.Policy
	events      EventBroadcaster
	alerts      AlertPublisher
	cache       SummaryCache
	log         *zap.Logger
	now         func() time.Time
}

// ShiftDeps groups the collaborators of the shift workflow.
type ShiftDeps struct {
	DB       *gorm.DB
	Shifts   repository.ShiftRepository
	Stations repository.StationRepository
	Records  repository.DailyRecordRepository
	Sales    repository.TransactionRepository
	Audit    repository.AuditRepository
	Policy   reconcile.Policy
	Events   EventBroadcaster
	Alerts   AlertPublisher
	Cache    SummaryCache
	Log      *zap.Logger
	Now      func() time.Time
}

func NewShiftService(deps ShiftDeps) ShiftService {
	s := &shiftService{
		db:          deps.DB,
		shiftRepo:   deps.Shifts,
		stationRepo: deps.Stations,
		recordRepo:  deps.Records,
		txRepo:      deps.Sales,
		auditRepo:   deps.Audit,
		policy:      deps.Policy,
		events:      deps.Events,
		alerts:      deps.Alerts,
		cache:       deps.Cache,
		log:         deps.Log.Named("shift"),
		now:         deps.Now,
	}
	if s.events == nil {
		s.events = nopBroadcaster{}
	}
	if s.alerts == nil {
		s.alerts = nopAlerts{}
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *shiftService) Open(ctx context.Context, actor Actor, req *OpenShiftRequest) (*model.Shift, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if err := actor.requireStation(req.StationID); err != nil {
		return nil, err
	}

	now := s.now()
	date := req.Date
	if date == "" {
		date = model.BusinessDate(now)
	}

	var shift *model.Shift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var station model.Station
		if err := tx.First(&station, "id = ?", req.StationID).Error; err != nil {
			return notFound("station", err)
		}
		if !station.IsActive {
			return invalid("station %s is inactive", station.Code)
		}

		if open, err := s.shiftRepo.FindOpenShiftTx(tx, station.ID); err == nil {
			return conflict("shift %d of %s is still open (id %s)", open.ShiftNumber, open.Date, open.ID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		taken, err := s.shiftRepo.NumberTaken(tx, station.ID, date, req.ShiftNumber)
		if err != nil {
			return err
		}
		if taken {
			return conflict("shift %d of %s already exists", req.ShiftNumber, date)
		}

		record := &model.DailyRecord{StationID: station.ID, Date: date, PricePerLiter: station.DefaultPricePerLiter}
		record.CreatedBy = actor.ID()
		record.UpdatedBy = actor.ID()
		record, err = s.recordRepo.FindOrCreate(tx, record)
		if err != nil {
			return err
		}

		last, err := s.shiftRepo.FindLastClosed(tx, station.ID)
		if err != nil {
			return err
		}
		meters, gauges, err := startReadings(&station, last, req)
		if err != nil {
			return err
		}

		shift = &model.Shift{
			StationID:     station.ID,
			DailyRecordID: record.ID,
			Date:          date,
			ShiftNumber:   req.ShiftNumber,
			Status:        model.ShiftOpen,
			StaffID:       actor.UserID,
			PricePerLiter: record.PricePerLiter,
			OpenedAt:      now,
			Version:       1,
			Note:          req.Note,
			MeterReadings: meters,
			GaugeReadings: gauges,
		}
		shift.CreatedBy = actor.ID()
		shift.UpdatedBy = actor.ID()
		for i := range shift.MeterReadings {
			shift.MeterReadings[i].CreatedBy = actor.ID()
		}
		for i := range shift.GaugeReadings {
			shift.GaugeReadings[i].CreatedBy = actor.ID()
		}

		if err := s.shiftRepo.Create(tx, shift); err != nil {
			if isUniqueViolation(err) {
				return conflict("another shift was opened at %s concurrently", station.Code)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("shift opened",
		zap.String("station_id", shift.StationID.String()),
		zap.String("shift_id", shift.ID.String()),
		zap.String("date", shift.Date),
		zap.Int("shift_number", shift.ShiftNumber))
	s.afterChange(ctx, actor, shift, "shift_opened",
		fmt.Sprintf("%s opened shift %d of %s", actor.Name, shift.ShiftNumber, shift.Date))
	return shift, nil
}

// startReadings resolves the opening meters and gauges: request values win,
// otherwise the end readings of the previous closed shift carry forward.
func startReadings(station *model.Station, last *model.Shift, req *OpenShiftRequest) ([]model.MeterReading, []model.GaugeReading, error) {
	meterStart := map[int]decimal.Decimal{}
	gaugeStart := map[int]decimal.Decimal{}
	photos := map[int][]string{}

	if last != nil {
		for _, m := range last.MeterReadings {
			if m.EndReading != nil {
				meterStart[m.Nozzle] = *m.EndReading
			}
		}
		for _, g := range last.GaugeReadings {
			if g.Phase == model.GaugeEnd {
				gaugeStart[g.Tank] = g.Percentage
			}
		}
	}
	for _, m := range req.StartMeters {
		if m.Nozzle > station.NozzleCount {
			return nil, nil, invalid("station %s has no nozzle %d", station.Code, m.Nozzle)
		}
		meterStart[m.Nozzle] = m.Reading
		photos[m.Nozzle] = m.Photos
	}
	for _, g := range req.StartGauges {
		if g.Tank > station.TankCount {
			return nil, nil, invalid("station %s has no tank %d", station.Code, g.Tank)
		}
		if err := reconcile.ValidateGauge(g.Percentage); err != nil {
			return nil, nil, fmt.Errorf("%w: tank %d: %v", ErrValidation, g.Tank, err)
		}
		gaugeStart[g.Tank] = g.Percentage
	}

	var missing []string
	meters := make([]model.MeterReading, 0, station.NozzleCount)
	for _, n := range station.Nozzles() {
		start, ok := meterStart[n]
		if !ok {
			missing = append(missing, fmt.Sprintf("start meter for nozzle %d", n))
			continue
		}
		meters = append(meters, model.MeterReading{Nozzle: n, StartReading: start, Photos: photoJSON(photos[n])})
	}
	gauges := make([]model.GaugeReading, 0, station.TankCount)
	for _, t := range station.Tanks() {
		pct, ok := gaugeStart[t]
		if !ok {
			missing = append(missing, fmt.Sprintf("start gauge for tank %d", t))
			continue
		}
		gauges = append(gauges, model.GaugeReading{Tank: t, Phase: model.GaugeStart, Percentage: pct})
	}
	if len(missing) > 0 {
		return nil, nil, invalid("missing %s", strings.Join(missing, ", "))
	}
	return meters, gauges, nil
}

func photoJSON(keys []string) []byte {
	if len(keys) == 0 {
		return nil
	}
	b, _ := json.Marshal(keys)
	return b
}

func (s *shiftService) FindOpenShift(ctx context.Context, actor Actor, stationID uuid.UUID) (*model.Shift, error) {
	if err := actor.requireStation(stationID); err != nil {
		return nil, err
	}
	shift, err := s.shiftRepo.FindOpenShift(ctx, stationID)
	if err != nil {
		return nil, notFound("open shift", err)
	}
	return shift, nil
}

func (s *shiftService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Shift, error) {
	shift, err := s.shiftRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("shift", err)
	}
	if err := actor.requireStation(shift.StationID); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) List(ctx context.Context, actor Actor, filter repository.ShiftFilter) ([]model.Shift, error) {
	scope, err := actor.scopeStation(filter.StationID)
	if err != nil {
		return nil, err
	}
	filter.StationID = scope
	return s.shiftRepo.List(ctx, filter)
}

// loadOpen loads a shift inside tx and checks it is open and within the actor's scope
func (s *shiftService) loadOpen(tx *gorm.DB, actor Actor, shiftID uuid.UUID) (*model.Shift, error) {
	shift, err := s.shiftRepo.LoadWithReadings(tx, shiftID)
	if err != nil {
		return nil, notFound("shift", err)
	}
	if err := actor.requireStation(shift.StationID); err != nil {
		return nil, err
	}
	if !shift.IsOpen() {
		return nil, conflict("shift %d of %s is already closed", shift.ShiftNumber, shift.Date)
	}
	return shift, nil
}

func (s *shiftService) RecordEndMeters(ctx context.Context, actor Actor, shiftID uuid.UUID, req *EndMetersRequest) (*model.Shift, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	var shift *model.Shift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := s.loadOpen(tx, actor, shiftID)
		if err != nil {
			return err
		}

		byNozzle := make(map[int]model.MeterReading, len(open.MeterReadings))
		for _, m := range open.MeterReadings {
			byNozzle[m.Nozzle] = m
		}
		for _, in := range req.Meters {
			meter, ok := byNozzle[in.Nozzle]
			if !ok {
				return invalid("shift has no nozzle %d", in.Nozzle)
			}
			if err := reconcile.ValidateMeter(in.Nozzle, meter.StartReading, in.Reading); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			if err := s.shiftRepo.SetEndMeter(tx, meter.ID, in.Reading, photoJSON(in.Photos), actor.ID()); err != nil {
				return err
			}
		}

		if rows, err := s.shiftRepo.BumpVersion(tx, shiftID, actor.ID()); err != nil {
			return err
		} else if rows == 0 {
			return conflict("shift was closed while recording meters")
		}

		shift, err = s.shiftRepo.LoadWithReadings(tx, shiftID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("end meters recorded", zap.String("shift_id", shiftID.String()), zap.Int("count", len(req.Meters)))
	s.afterChange(ctx, actor, shift, "meters_recorded", fmt.Sprintf("%s recorded %d end meters", actor.Name, len(req.Meters)))
	return shift, nil
}

func (s *shiftService) RecordGauges(ctx context.Context, actor Actor, shiftID uuid.UUID, req *GaugesRequest) (*model.Shift, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	phase := req.Phase
	if phase == "" {
		phase = model.GaugeEnd
	}

	var shift *model.Shift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := s.loadOpen(tx, actor, shiftID)
		if err != nil {
			return err
		}
		var station model.Station
		if err := tx.First(&station, "id = ?", open.StationID).Error; err != nil {
			return notFound("station", err)
		}

		for _, in := range req.Gauges {
			if in.Tank > station.TankCount {
				return invalid("station %s has no tank %d", station.Code, in.Tank)
			}
			if err := reconcile.ValidateGauge(in.Percentage); err != nil {
				return fmt.Errorf("%w: tank %d: %v", ErrValidation, in.Tank, err)
			}
			gauge := &model.GaugeReading{ShiftID: shiftID, Tank: in.Tank, Phase: phase, Percentage: in.Percentage}
			gauge.CreatedBy = actor.ID()
			gauge.UpdatedBy = actor.ID()
			if err := s.shiftRepo.SaveGauge(tx, gauge); err != nil {
				return err
			}
		}

		if rows, err := s.shiftRepo.BumpVersion(tx, shiftID, actor.ID()); err != nil {
			return err
		} else if rows == 0 {
			return conflict("shift was closed while recording gauges")
		}

		shift, err = s.shiftRepo.LoadWithReadings(tx, shiftID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("gauges recorded", zap.String("shift_id", shiftID.String()), zap.String("phase", string(phase)))
	s.afterChange(ctx, actor, shift, "gauges_recorded", fmt.Sprintf("%s recorded %d %s gauges", actor.Name, len(req.Gauges), phase))
	return shift, nil
}

// engineReadings lays out every nozzle and tank of the station so a row that
// was never written still shows up as missing.
func engineReadings(station *model.Station, shift *model.Shift) ([]reconcile.MeterDelta, []reconcile.GaugePair) {
	byNozzle := make(map[int]model.MeterReading, len(shift.MeterReadings))
	for _, m := range shift.MeterReadings {
		byNozzle[m.Nozzle] = m
	}
	meters := make([]reconcile.MeterDelta, 0, station.NozzleCount)
	for _, n := range station.Nozzles() {
		m := byNozzle[n]
		meters = append(meters, reconcile.MeterDelta{Nozzle: n, Start: m.StartReading, End: m.EndReading})
	}

	type pair struct{ start, end *decimal.Decimal }
	byTank := map[int]*pair{}
	for i := range shift.GaugeReadings {
		g := &shift.GaugeReadings[i]
		p := byTank[g.Tank]
		if p == nil {
			p = &pair{}
			byTank[g.Tank] = p
		}
		pct := g.Percentage
		if g.Phase == model.GaugeStart {
			p.start = &pct
		} else {
			p.end = &pct
		}
	}
	gauges := make([]reconcile.GaugePair, 0, station.TankCount)
	for _, t := range station.Tanks() {
		p := byTank[t]
		if p == nil {
			p = &pair{}
		}
		gauges = append(gauges, reconcile.GaugePair{Tank: t, Start: p.start, End: p.end})
	}
	return meters, gauges
}

// runEngine maps engine failures onto the service error classes; an
// incomplete shift keeps ErrIncomplete so callers can list what is missing.
func (s *shiftService) runEngine(in reconcile.Input) (reconcile.Result, error) {
	res, err := reconcile.Reconcile(in, s.policy)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, reconcile.ErrIncomplete) {
		return res, err
	}
	return res, fmt.Errorf("%w: %v", ErrValidation, err)
}

func (s *shiftService) ClosePreview(ctx context.Context, actor Actor, shiftID uuid.UUID) (*ClosePreview, error) {
	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil {
		return nil, notFound("shift", err)
	}
	if err := actor.requireStation(shift.StationID); err != nil {
		return nil, err
	}
	if !shift.IsOpen() {
		return nil, conflict("shift %d of %s is already closed", shift.ShiftNumber, shift.Date)
	}
	station, err := s.stationRepo.FindByID(ctx, shift.StationID)
	if err != nil {
		return nil, notFound("station", err)
	}

	sales, err := s.txRepo.FindByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	summary := summarizeSales(sales)
	prefill := summary.Prefill()

	meters, gauges := engineReadings(station, shift)
	res, err := s.runEngine(reconcile.Input{
		Meters:        meters,
		Gauges:        gauges,
		PricePerLiter: shift.PricePerLiter,
		Received:      prefill,
	})
	if err != nil {
		return nil, err
	}

	return &ClosePreview{
		ShiftID:  shift.ID,
		Version:  shift.Version,
		Sales:    summary,
		Prefill:  prefill,
		Result:   res,
		Severity: s.policy.Severity(res.Variance),
	}, nil
}

// Close finalizes a shift. The OPEN to CLOSED flip is a single conditional
// update on (status, version); the loser of two concurrent closes gets ErrConflict.
func (s *shiftService) Close(ctx context.Context, actor Actor, shiftID uuid.UUID, req *CloseShiftRequest) (*CloseResult, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		closed *model.Shift
		rec    *model.Reconciliation
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shift, err := s.loadOpen(tx, actor, shiftID)
		if err != nil {
			return err
		}
		if shift.Version != req.Version {
			return conflict("shift changed since it was previewed (version %d, current %d)", req.Version, shift.Version)
		}
		var station model.Station
		if err := tx.First(&station, "id = ?", shift.StationID).Error; err != nil {
			return notFound("station", err)
		}

		received := reconcile.Received{
			Cash:     req.CashReceived,
			Credit:   req.CreditReceived,
			Card:     req.CardReceived,
			Transfer: req.TransferReceived,
		}
		meters, gauges := engineReadings(&station, shift)
		res, err := s.runEngine(reconcile.Input{
			Meters:        meters,
			Gauges:        gauges,
			PricePerLiter: shift.PricePerLiter,
			OtherExpected: req.OtherExpected,
			Received:      received,
		})
		if err != nil {
			return err
		}

		rows, err := s.shiftRepo.Close(tx, shiftID, req.Version, now, actor.UserID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return conflict("shift %d of %s was closed or changed by another request", shift.ShiftNumber, shift.Date)
		}

		rec = &model.Reconciliation{
			ShiftID:          shift.ID,
			StationID:        shift.StationID,
			Date:             shift.Date,
			TotalLiters:      res.TotalLiters,
			PricePerLiter:    shift.PricePerLiter,
			OtherExpected:    req.OtherExpected.Round(reconcile.MoneyPlaces),
			ExpectedAmount:   res.ExpectedAmount,
			CashReceived:     received.Cash.Round(reconcile.MoneyPlaces),
			CreditReceived:   received.Credit.Round(reconcile.MoneyPlaces),
			CardReceived:     received.Card.Round(reconcile.MoneyPlaces),
			TransferReceived: received.Transfer.Round(reconcile.MoneyPlaces),
			TotalReceived:    res.TotalReceived,
			Variance:         res.Variance,
			VarianceStatus:   string(res.VarianceStatus),
			Severity:         string(s.policy.Severity(res.Variance)),
			ClosedBy:         actor.ID(),
		}
		if err := s.shiftRepo.CreateReconciliation(tx, rec); err != nil {
			if isUniqueViolation(err) {
				return conflict("shift %s already has a reconciliation", shift.ID)
			}
			return err
		}

		closed, err = s.shiftRepo.LoadWithReadings(tx, shiftID)
		return err
	})
	if err != nil {
		if !isExpected(err) {
			s.log.Error("shift close failed", zap.String("shift_id", shiftID.String()), zap.Error(err))
		}
		return nil, err
	}

	severity := reconcile.Severity(rec.Severity)
	s.log.Info("shift closed",
		zap.String("station_id", closed.StationID.String()),
		zap.String("shift_id", closed.ID.String()),
		zap.String("variance", rec.Variance.String()),
		zap.String("status", rec.VarianceStatus),
		zap.String("severity", rec.Severity))

	s.afterChange(ctx, actor, closed, "shift_closed",
		fmt.Sprintf("%s closed shift %d of %s: %s %s", actor.Name, closed.ShiftNumber, closed.Date, rec.VarianceStatus, rec.Variance.StringFixed(2)))
	if severity == reconcile.SeverityCritical {
		s.publishVarianceAlert(ctx, closed, rec)
	}

	return &CloseResult{Shift: closed, Reconciliation: rec, Severity: severity}, nil
}

func (s *shiftService) publishVarianceAlert(ctx context.Context, shift *model.Shift, rec *model.Reconciliation) {
	alert := Alert{
		StationID: shift.StationID,
		ShiftID:   shift.ID,
		Severity:  rec.Severity,
		Subject:   fmt.Sprintf("Critical variance %s on %s shift %d", rec.Variance.StringFixed(2), shift.Date, shift.ShiftNumber),
		Message: fmt.Sprintf("Expected %s, received %s, variance %s (%s).",
			rec.ExpectedAmount.StringFixed(2), rec.TotalReceived.StringFixed(2), rec.Variance.StringFixed(2), rec.VarianceStatus),
	}
	if err := s.alerts.PublishAlert(ctx, alert); err != nil {
		s.log.Warn("variance alert not delivered", zap.String("shift_id", shift.ID.String()), zap.Error(err))
	}
}

// CorrectMeter lets an admin fix a closed shift's meter row. The stored
// reconciliation keeps its original figures; the audit log carries the change.
func (s *shiftService) CorrectMeter(ctx context.Context, actor Actor, shiftID uuid.UUID, nozzle int, req *CorrectMeterRequest) (*model.MeterReading, error) {
	if err := actor.requireAdmin("correcting a closed shift"); err != nil {
		return nil, err
	}
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	// a closed shift was reconciled against an end reading; it cannot be cleared
	if req.EndReading == nil {
		return nil, invalid("end reading is required when correcting nozzle %d", nozzle)
	}
	if err := reconcile.ValidateMeter(nozzle, req.StartReading, *req.EndReading); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var updated model.MeterReading
	var stationID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shift model.Shift
		if err := tx.First(&shift, "id = ?", shiftID).Error; err != nil {
			return notFound("shift", err)
		}
		if shift.IsOpen() {
			return conflict("shift is still open; record readings instead of correcting them")
		}
		stationID = shift.StationID

		meter, err := s.shiftRepo.FindMeter(tx, shiftID, nozzle)
		if err != nil {
			return notFound(fmt.Sprintf("meter for nozzle %d", nozzle), err)
		}
		old := *meter

		if err := s.shiftRepo.CorrectMeter(tx, meter.ID, req.StartReading, req.EndReading, actor.ID()); err != nil {
			return err
		}
		updated = *meter
		updated.StartReading = req.StartReading
		updated.EndReading = req.EndReading
		updated.UpdatedBy = actor.ID()

		return appendAudit(tx, s.auditRepo, actor, model.AuditMeterCorrection, "meter_reading", meter.ID.String(),
			old, map[string]interface{}{"meter": updated, "reason": req.Reason, "shift_id": shiftID})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("meter corrected", zap.String("shift_id", shiftID.String()), zap.Int("nozzle", nozzle))
	s.invalidate(ctx, stationID)
	return &updated, nil
}

func (s *shiftService) afterChange(ctx context.Context, actor Actor, shift *model.Shift, action, message string) {
	s.invalidate(ctx, shift.StationID)
	s.events.Publish(shift.StationID, "shift_update", map[string]interface{}{
		"action": action,
		"shift": map[string]interface{}{
			"id":           shift.ID,
			"date":         shift.Date,
			"shift_number": shift.ShiftNumber,
			"status":       shift.Status,
			"version":      shift.Version,
		},
		"user": map[string]interface{}{
			"id":   actor.ID(),
			"name": actor.Name,
		},
		"message": message,
	})
}

func (s *shiftService) invalidate(ctx context.Context, stationID uuid.UUID) {
	if err := s.cache.InvalidateStation(ctx, stationID); err != nil {
		s.log.Warn("cache invalidation failed", zap.String("station_id", stationID.String()), zap.Error(err))
	}
}

// isExpected reports business-rule failures that need no error log
func isExpected(err error) bool {
	for _, target := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrForbidden, ErrIncomplete} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
