package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go-fuelstation-pos/internal/export"
	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/testutil"
)

// closeShift records the end readings and closes with the given cash total
func closeShift(t *testing.T, env *testEnv, actor Actor, shift *model.Shift, cash string) {
	t.Helper()
	ctx := context.Background()
	recordAllEnds(t, env, actor, shift)
	preview, err := env.shifts.ClosePreview(ctx, actor, shift.ID)
	if err != nil {
		t.Fatalf("ClosePreview: %v", err)
	}
	if _, err := env.shifts.Close(ctx, actor, shift.ID, &CloseShiftRequest{
		Version:      preview.Version,
		CashReceived: dec(cash),
	}); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestExportTransactionsCSV(t *testing.T) {
	env := newEnv(t)
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	testutil.Sale(t, env.db, station.ID, nil, model.PayCash, "300")
	testutil.Sale(t, env.db, station.ID, nil, model.PayTransfer, "150")
	voided := testutil.Sale(t, env.db, station.ID, nil, model.PayCash, "999")
	if err := env.db.Model(voided).Updates(map[string]interface{}{"is_voided": true, "void_reason": "typo"}).Error; err != nil {
		t.Fatalf("void: %v", err)
	}

	report, err := env.reports.ExportTransactions(context.Background(), staffActor(station.ID),
		repository.TransactionFilter{StationID: &station.ID}, "")
	if err != nil {
		t.Fatalf("ExportTransactions: %v", err)
	}
	if !strings.HasPrefix(report.Filename, "transactions_ST01") || !strings.HasSuffix(report.Filename, ".csv") {
		t.Errorf("Filename = %q", report.Filename)
	}

	table, err := export.ParseCSV(bytes.NewReader(report.Data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("rows = %d, want 2 live sales", len(table.Rows))
	}
	if len(table.Totals) < 8 || table.Totals[7] != "450.00" {
		t.Errorf("totals = %v, want amount 450.00", table.Totals)
	}
}

func TestExportFormats(t *testing.T) {
	env := newEnv(t)
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	testutil.Sale(t, env.db, station.ID, nil, model.PayCash, "300")
	actor := adminActor()
	filter := repository.TransactionFilter{StationID: &station.ID}

	report, err := env.reports.ExportTransactions(context.Background(), actor, filter, "XLSX")
	if err != nil {
		t.Fatalf("xlsx export: %v", err)
	}
	if report.ContentType != export.XLSXContentType || !strings.HasSuffix(report.Filename, ".xlsx") {
		t.Errorf("xlsx report = %s %s", report.Filename, report.ContentType)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(report.Data, []byte("PK")) {
		t.Error("xlsx data is not a zip archive")
	}

	if _, err := env.reports.ExportTransactions(context.Background(), actor, filter, "pdf"); !errors.Is(err, ErrValidation) {
		t.Errorf("pdf export err = %v, want ErrValidation", err)
	}
}

func TestExportShiftsOnlyClosed(t *testing.T) {
	env := newEnv(t)
	station, actor, shift := openTwoNozzleShift(t, env)
	closeShift(t, env, actor, shift, "4500")

	if _, err := env.shifts.Open(context.Background(), actor, &OpenShiftRequest{
		StationID:   station.ID,
		ShiftNumber: 2,
		Date:        "2025-03-01",
	}); err != nil {
		t.Fatalf("Open second shift: %v", err)
	}

	report, err := env.reports.ExportShifts(context.Background(), actor, repository.ShiftFilter{StationID: &station.ID}, FormatCSV)
	if err != nil {
		t.Fatalf("ExportShifts: %v", err)
	}
	table, err := export.ParseCSV(bytes.NewReader(report.Data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Errorf("rows = %d, want only the closed shift", len(table.Rows))
	}
}

func TestArchiveDay(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	sale := testutil.Sale(t, env.db, station.ID, nil, model.PayCash, "300")

	if _, err := env.reports.ArchiveDay(ctx, staffActor(station.ID), station.ID, sale.SaleDate); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff ArchiveDay err = %v, want ErrForbidden", err)
	}

	res, err := env.reports.ArchiveDay(ctx, adminActor(), station.ID, sale.SaleDate)
	if err != nil {
		t.Fatalf("ArchiveDay: %v", err)
	}
	want := "ST01/" + sale.SaleDate + "/transactions_ST01_" + sale.SaleDate + ".csv"
	if res.Key != want {
		t.Errorf("Key = %q, want %q", res.Key, want)
	}
	if _, ok := env.archive.objects[want]; !ok {
		t.Error("object not stored in archive")
	}
	if res.URL == "" {
		t.Error("URL empty")
	}
}
