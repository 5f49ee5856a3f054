package service

import (
	"context"
	"errors"
	"testing"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/testutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestMergeOwnersMovesTrucksAndSales(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)

	source := testutil.Owner(t, env.db, "Somchai", "70-1111", "70-2222")
	target := testutil.Owner(t, env.db, "Somchai Transport Co.", "70-3333")
	for i := 0; i < 5; i++ {
		testutil.Sale(t, env.db, station.ID, &source.ID, model.PayCredit, "1000")
	}
	for i := 0; i < 3; i++ {
		testutil.Sale(t, env.db, station.ID, &target.ID, model.PayCredit, "500")
	}

	res, err := env.owners.Merge(ctx, adminActor(), &MergeOwnersRequest{SourceOwnerID: source.ID, TargetOwnerID: target.ID})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.TrucksMoved != 2 || res.TransactionsMoved != 5 {
		t.Errorf("moved trucks=%d sales=%d, want 2 and 5", res.TrucksMoved, res.TransactionsMoved)
	}
	if res.TargetTrucks != 3 || res.TargetTransactions != 8 {
		t.Errorf("target trucks=%d sales=%d, want 3 and 8", res.TargetTrucks, res.TargetTransactions)
	}

	if _, err := env.owners.Get(ctx, source.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get source after merge err = %v, want ErrNotFound", err)
	}

	summary, err := env.owners.CreditSummary(ctx, target.ID)
	if err != nil {
		t.Fatalf("CreditSummary: %v", err)
	}
	if summary.Count != 8 || !summary.Total.Equal(dec("6500")) {
		t.Errorf("credit count=%d total=%s, want 8 and 6500", summary.Count, summary.Total)
	}

	var audits int64
	env.db.Model(&model.AuditLog{}).Where("action = ?", model.AuditOwnerMerge).Count(&audits)
	if audits != 1 {
		t.Errorf("audit rows = %d, want 1", audits)
	}
}

func TestMergeOwnersRollsBackOnFailure(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)

	source := testutil.Owner(t, env.db, "Somchai", "70-1111", "70-2222")
	target := testutil.Owner(t, env.db, "Somchai Transport Co.", "70-3333")
	for i := 0; i < 5; i++ {
		testutil.Sale(t, env.db, station.ID, &source.ID, model.PayCredit, "1000")
	}

	// fail the transaction reassignment after the trucks have already moved
	err := env.db.Callback().Update().Before("gorm:update").Register("test:fail_sales", func(tx *gorm.DB) {
		if tx.Statement.Table == "transactions" {
			tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := env.owners.Merge(ctx, adminActor(), &MergeOwnersRequest{SourceOwnerID: source.ID, TargetOwnerID: target.ID}); err == nil {
		t.Fatal("Merge succeeded, want failure")
	}

	got, err := env.owners.Get(ctx, source.ID)
	if err != nil {
		t.Fatalf("source owner gone after failed merge: %v", err)
	}
	if len(got.Trucks) != 2 {
		t.Errorf("source trucks = %d, want 2 after rollback", len(got.Trucks))
	}
	tgt, err := env.owners.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("Get target: %v", err)
	}
	if len(tgt.Trucks) != 1 {
		t.Errorf("target trucks = %d, want 1 after rollback", len(tgt.Trucks))
	}

	var kept int64
	env.db.Model(&model.Transaction{}).Where("owner_id = ?", source.ID).Count(&kept)
	if kept != 5 {
		t.Errorf("source sales = %d, want 5 after rollback", kept)
	}
}

func TestMergeOwnersRejects(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)

	a := testutil.Owner(t, env.db, "A", "70-1111")
	b := testutil.Owner(t, env.db, "B", "70-2222")
	missing := testutil.Owner(t, env.db, "Gone")
	if err := env.db.Delete(missing).Error; err != nil {
		t.Fatalf("delete owner: %v", err)
	}

	tests := []struct {
		name  string
		actor Actor
		req   *MergeOwnersRequest
		want  error
	}{
		{"into itself", adminActor(), &MergeOwnersRequest{SourceOwnerID: a.ID, TargetOwnerID: a.ID}, ErrValidation},
		{"staff", staffActor(station.ID), &MergeOwnersRequest{SourceOwnerID: a.ID, TargetOwnerID: b.ID}, ErrForbidden},
		{"deleted source", adminActor(), &MergeOwnersRequest{SourceOwnerID: missing.ID, TargetOwnerID: a.ID}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.owners.Merge(ctx, tt.actor, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMergeOwnersFoldsSharedPlate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)

	source := testutil.Owner(t, env.db, "Somchai", " 70-1111", "70-2222")
	target := testutil.Owner(t, env.db, "Somchai Transport Co.", "70-1111")
	sourceTruck, targetTruck := source.Trucks[0].ID, target.Trucks[0].ID

	onTruck := func(ownerID, truckID uuid.UUID) {
		sale := testutil.Sale(t, env.db, station.ID, &ownerID, model.PayCredit, "600")
		if err := env.db.Model(sale).Update("truck_id", truckID).Error; err != nil {
			t.Fatalf("set truck: %v", err)
		}
	}
	onTruck(source.ID, sourceTruck)
	onTruck(source.ID, sourceTruck)
	onTruck(target.ID, targetTruck)

	res, err := env.owners.Merge(ctx, adminActor(), &MergeOwnersRequest{SourceOwnerID: source.ID, TargetOwnerID: target.ID})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.TrucksFolded != 1 || res.TrucksMoved != 1 {
		t.Errorf("folded=%d moved=%d, want 1 and 1", res.TrucksFolded, res.TrucksMoved)
	}
	if res.TargetTrucks != 2 || res.TargetTransactions != 3 {
		t.Errorf("target trucks=%d sales=%d, want 2 and 3", res.TargetTrucks, res.TargetTransactions)
	}

	var onTarget, onSource int64
	env.db.Model(&model.Transaction{}).Where("truck_id = ?", targetTruck).Count(&onTarget)
	env.db.Unscoped().Model(&model.Transaction{}).Where("truck_id = ?", sourceTruck).Count(&onSource)
	if onTarget != 3 || onSource != 0 {
		t.Errorf("sales on target truck=%d source truck=%d, want 3 and 0", onTarget, onSource)
	}

	var live int64
	env.db.Model(&model.Truck{}).Where("id = ?", sourceTruck).Count(&live)
	if live != 0 {
		t.Error("folded truck still live")
	}
	if _, err := env.owners.Get(ctx, source.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get source after merge err = %v, want ErrNotFound", err)
	}
}

func TestAddTruck(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	actor := adminActor()

	owner, err := env.owners.Create(ctx, actor, &CreateOwnerRequest{Name: "Somchai"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	truck, err := env.owners.AddTruck(ctx, actor, owner.ID, &AddTruckRequest{LicensePlate: " 70 1234 "})
	if err != nil {
		t.Fatalf("AddTruck: %v", err)
	}
	if truck.LicensePlate != "701234" {
		t.Errorf("plate = %q, want normalized 701234", truck.LicensePlate)
	}

	if _, err := env.owners.AddTruck(ctx, actor, owner.ID, &AddTruckRequest{LicensePlate: "701234"}); !errors.Is(err, ErrConflict) {
		t.Errorf("second truck with same plate err = %v, want ErrConflict", err)
	}
	if _, err := env.owners.AddTruck(ctx, actor, owner.ID, &AddTruckRequest{LicensePlate: "-"}); !errors.Is(err, ErrValidation) {
		t.Errorf("placeholder plate err = %v, want ErrValidation", err)
	}
}

func TestCreditSummaryIgnoresOtherSales(t *testing.T) {
	env := newEnv(t)
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	owner := testutil.Owner(t, env.db, "Somchai", "70-1111")

	testutil.Sale(t, env.db, station.ID, &owner.ID, model.PayCredit, "1200")
	testutil.Sale(t, env.db, station.ID, &owner.ID, model.PayCash, "300")
	voided := testutil.Sale(t, env.db, station.ID, &owner.ID, model.PayCredit, "900")
	if err := env.db.Model(voided).Update("is_voided", true).Error; err != nil {
		t.Fatalf("void: %v", err)
	}

	summary, err := env.owners.CreditSummary(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("CreditSummary: %v", err)
	}
	if summary.Count != 1 || !summary.Total.Equal(dec("1200")) || !summary.Liters.Equal(dec("40")) {
		t.Errorf("summary = %+v, want one credit sale of 1200 / 40 L", summary)
	}
	if summary.LastSale == nil {
		t.Error("LastSale not set")
	}
}
