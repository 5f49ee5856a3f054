package service

import (
	"context"
	"errors"
	"testing"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/testutil"
)

func TestDailyRecordCreate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	record, err := env.records.Create(ctx, actor, &CreateDailyRecordRequest{StationID: station.ID, Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !record.PricePerLiter.Equal(station.DefaultPricePerLiter) {
		t.Errorf("price = %s, want station default %s", record.PricePerLiter, station.DefaultPricePerLiter)
	}

	price := dec("31.456")
	tests := []struct {
		name string
		req  *CreateDailyRecordRequest
		want error
	}{
		{"same date", &CreateDailyRecordRequest{StationID: station.ID, Date: "2025-03-01"}, ErrConflict},
		{"bad date", &CreateDailyRecordRequest{StationID: station.ID, Date: "01/03/2025"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.records.Create(ctx, actor, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	next, err := env.records.Create(ctx, actor, &CreateDailyRecordRequest{StationID: station.ID, Date: "2025-03-02", PricePerLiter: &price})
	if err != nil {
		t.Fatalf("Create with price: %v", err)
	}
	if !next.PricePerLiter.Equal(dec("31.46")) {
		t.Errorf("price = %s, want 31.46", next.PricePerLiter)
	}

	month, err := env.records.ListByMonth(ctx, actor, station.ID, "2025-03")
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(month) != 2 {
		t.Errorf("records in month = %d, want 2", len(month))
	}
}

func TestDailyRecordDelete(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	admin := adminActor()

	_, _, shift := openTwoNozzleShift(t, env)
	if err := env.records.Delete(ctx, admin, shift.DailyRecordID); !errors.Is(err, ErrConflict) {
		t.Errorf("delete with shift err = %v, want ErrConflict", err)
	}

	station := testutil.Station(t, env.db, "ST02", 1, 1)
	record, err := env.records.Create(ctx, admin, &CreateDailyRecordRequest{StationID: station.ID, Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sale := testutil.Sale(t, env.db, station.ID, nil, model.PayCash, "300")
	if err := env.db.Model(sale).Update("daily_record_id", record.ID).Error; err != nil {
		t.Fatalf("link sale: %v", err)
	}
	if err := env.records.Delete(ctx, admin, record.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("delete with sale err = %v, want ErrConflict", err)
	}

	empty, err := env.records.Create(ctx, admin, &CreateDailyRecordRequest{StationID: station.ID, Date: "2025-03-02"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.records.Delete(ctx, staffActor(station.ID), empty.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff delete err = %v, want ErrForbidden", err)
	}
	if err := env.records.Delete(ctx, admin, empty.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// the date is free again
	if _, err := env.records.Create(ctx, admin, &CreateDailyRecordRequest{StationID: station.ID, Date: "2025-03-02"}); err != nil {
		t.Errorf("re-create after delete: %v", err)
	}
}
