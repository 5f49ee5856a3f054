package service

import (
	"context"
	"fmt"
	"strings"

	"go-fuelstation-pos/internal/export"
	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	csvContentType = "text/csv; charset=utf-8"
)

type ReportService interface {
	ExportTransactions(ctx context.Context, actor Actor, filter repository.TransactionFilter, format string) (*Report, error)
	ExportShifts(ctx context.Context, actor Actor, filter repository.ShiftFilter, format string) (*Report, error)
	ArchiveDay(ctx context.Context, actor Actor, stationID uuid.UUID, date string) (*ArchiveResult, error)
}

// Report is a rendered file ready to be downloaded.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ArchiveResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type reportService struct {
	txRepo      repository.TransactionRepository
	shiftRepo   repository.ShiftRepository
	stationRepo repository.StationRepository
	archive     ReportArchive
	log         *zap.Logger
}

// NewReportService builds the export service; archive may be nil when no
// object storage is configured.
func NewReportService(txRepo repository.TransactionRepository, shiftRepo repository.ShiftRepository,
	stationRepo repository.StationRepository, archive ReportArchive, log *zap.Logger) ReportService {
	return &reportService{
		txRepo:      txRepo,
		shiftRepo:   shiftRepo,
		stationRepo: stationRepo,
		archive:     archive,
		log:         log.Named("report"),
	}
}

func render(t export.Table, base, format string) (*Report, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		data, err := export.CSVBytes(t)
		if err != nil {
			return nil, err
		}
		return &Report{Filename: base + ".csv", ContentType: csvContentType, Data: data}, nil
	case FormatXLSX:
		data, err := export.XLSXBytes(t)
		if err != nil {
			return nil, err
		}
		return &Report{Filename: base + ".xlsx", ContentType: export.XLSXContentType, Data: data}, nil
	default:
		return nil, invalid("unknown export format %q, use csv or xlsx", format)
	}
}

func reportName(kind string, stationCode, from, to string) string {
	parts := []string{kind}
	if stationCode != "" {
		parts = append(parts, stationCode)
	}
	if from != "" {
		parts = append(parts, from)
	}
	if to != "" && to != from {
		parts = append(parts, to)
	}
	return strings.Join(parts, "_")
}

func (s *reportService) stationCode(ctx context.Context, id *uuid.UUID) (string, error) {
	if id == nil {
		return "", nil
	}
	station, err := s.stationRepo.FindByID(ctx, *id)
	if err != nil {
		return "", notFound("station", err)
	}
	return station.Code, nil
}

func (s *reportService) ExportTransactions(ctx context.Context, actor Actor, filter repository.TransactionFilter, format string) (*Report, error) {
	scope, err := actor.scopeStation(filter.StationID)
	if err != nil {
		return nil, err
	}
	filter.StationID = scope
	filter.Limit, filter.Offset = 0, 0

	code, err := s.stationCode(ctx, scope)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	report, err := render(export.TransactionTable(rows), reportName("transactions", code, filter.From, filter.To), format)
	if err != nil {
		return nil, err
	}
	s.log.Info("transactions exported", zap.String("file", report.Filename), zap.Int("rows", len(rows)))
	return report, nil
}

func (s *reportService) ExportShifts(ctx context.Context, actor Actor, filter repository.ShiftFilter, format string) (*Report, error) {
	scope, err := actor.scopeStation(filter.StationID)
	if err != nil {
		return nil, err
	}
	filter.StationID = scope
	filter.Status = model.ShiftClosed

	code, err := s.stationCode(ctx, scope)
	if err != nil {
		return nil, err
	}
	shifts, err := s.shiftRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	// listing is newest first; reports read oldest first
	for i, j := 0, len(shifts)-1; i < j; i, j = i+1, j-1 {
		shifts[i], shifts[j] = shifts[j], shifts[i]
	}

	report, err := render(export.ShiftTable(shifts), reportName("shifts", code, filter.From, filter.To), format)
	if err != nil {
		return nil, err
	}
	s.log.Info("shifts exported", zap.String("file", report.Filename), zap.Int("rows", len(shifts)))
	return report, nil
}

// ArchiveDay uploads the day's transaction CSV under <station code>/<date>/.
func (s *reportService) ArchiveDay(ctx context.Context, actor Actor, stationID uuid.UUID, date string) (*ArchiveResult, error) {
	if err := actor.requireAdmin("archiving reports"); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, fmt.Errorf("%w: report archive is not configured", ErrConflict)
	}

	report, err := s.ExportTransactions(ctx, actor, repository.TransactionFilter{
		StationID:     &stationID,
		From:          date,
		To:            date,
		IncludeVoided: true,
	}, FormatCSV)
	if err != nil {
		return nil, err
	}
	code, err := s.stationCode(ctx, &stationID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s", code, date, report.Filename)
	url, err := s.archive.Put(ctx, key, report.Data, report.ContentType)
	if err != nil {
		s.log.Error("archive upload failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	s.log.Info("day archived", zap.String("key", key))
	return &ArchiveResult{Key: key, URL: url}, nil
}
