package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/testutil"
)

func saleRequest(station *model.Station, plate, amount string, method model.PaymentMethod) *CreateTransactionRequest {
	amt := dec(amount)
	return &CreateTransactionRequest{
		StationID:     station.ID,
		PaymentMethod: method,
		Liters:        amt.Div(dec("30")).Round(2),
		Amount:        &amt,
		LicensePlate:  plate,
	}
}

func TestCreateTransactionComputesAmount(t *testing.T) {
	env := newEnv(t)
	station := testutil.Station(t, env.db, "ST01", 2, 1)

	res, err := env.txs.Create(context.Background(), staffActor(station.ID), &CreateTransactionRequest{
		StationID:     station.ID,
		PaymentMethod: model.PayCash,
		Liters:        dec("12.345"),
		LicensePlate:  " 1กก 1234 ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	txn := res.Transaction
	// the stored liters and the stored amount must agree
	if !txn.Liters.Equal(dec("12.35")) {
		t.Errorf("Liters = %s, want 12.35", txn.Liters)
	}
	if !txn.Amount.Equal(dec("370.50")) {
		t.Errorf("Amount = %s, want 370.50", txn.Amount)
	}
	if txn.LicensePlate != "1กก1234" {
		t.Errorf("LicensePlate = %q, want normalized", txn.LicensePlate)
	}
	if txn.ShiftID != nil {
		t.Errorf("sale outside any shift got shift %s", txn.ShiftID)
	}
	if len(env.events.events) == 0 {
		t.Error("no live event published")
	}
}

func TestCreateTransactionRejectsVolumeBelowOneHundredth(t *testing.T) {
	env := newEnv(t)
	station := testutil.Station(t, env.db, "ST01", 2, 1)

	_, err := env.txs.Create(context.Background(), staffActor(station.ID), &CreateTransactionRequest{
		StationID:     station.ID,
		PaymentMethod: model.PayCash,
		Liters:        dec("0.004"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCreateTransactionRejectsDuplicate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	first, err := env.txs.Create(ctx, actor, saleRequest(station, "1กก1234", "500.00", model.PayCash))
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err = env.txs.Create(ctx, actor, saleRequest(station, "1กก 1234", "500", model.PayCash))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate Create err = %v, want ErrConflict", err)
	}
	if !strings.Contains(err.Error(), first.Transaction.ID.String()) {
		t.Errorf("conflict %q does not name the existing sale", err)
	}

	tests := []struct {
		name string
		req  *CreateTransactionRequest
	}{
		{"different amount", saleRequest(station, "1กก1234", "500.01", model.PayCash)},
		{"different method", saleRequest(station, "1กก1234", "500.00", model.PayTransfer)},
		{"different plate", saleRequest(station, "2กก1234", "500.00", model.PayCash)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.txs.Create(ctx, actor, tt.req); err != nil {
				t.Errorf("Create: %v", err)
			}
		})
	}
}

func TestCreateTransactionDistinctBillsAreNotDuplicates(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	for _, number := range []string{"001", "002"} {
		req := saleRequest(station, "1กก1234", "500.00", model.PayCash)
		req.BillBook, req.BillNumber = "A", number
		if _, err := env.txs.Create(ctx, actor, req); err != nil {
			t.Fatalf("Create bill A/%s: %v", number, err)
		}
	}

	// same bill again is a duplicate
	req := saleRequest(station, "1กก1234", "500.00", model.PayCash)
	req.BillBook, req.BillNumber = "A", "002"
	if _, err := env.txs.Create(ctx, actor, req); !errors.Is(err, ErrConflict) {
		t.Errorf("repeat of bill A/002 err = %v, want ErrConflict", err)
	}
}

func TestCreateTransactionBillCollisionWarns(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	first := saleRequest(station, "1กก1234", "500.00", model.PayCash)
	first.BillBook, first.BillNumber = "B", "010"
	if _, err := env.txs.Create(ctx, actor, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := saleRequest(station, "9ขข9999", "800.00", model.PayCash)
	second.BillBook, second.BillNumber = "B", "010"
	res, err := env.txs.Create(ctx, actor, second)
	if err != nil {
		t.Fatalf("Create with reused bill: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want one bill collision", res.Warnings)
	}
}

func TestCreateTransactionPlaceholderPlatesNeverCollide(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	for _, plate := range []string{"-", "-", "ไม่ระบุ", ""} {
		if _, err := env.txs.Create(ctx, actor, saleRequest(station, plate, "100.00", model.PayCash)); err != nil {
			t.Errorf("Create with plate %q: %v", plate, err)
		}
	}
}

func TestVoidedSaleDoesNotBlockReentry(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	first, err := env.txs.Create(ctx, actor, saleRequest(station, "1กก1234", "500.00", model.PayCash))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	voided, err := env.txs.Void(ctx, actor, first.Transaction.ID, &VoidTransactionRequest{Reason: "wrong amount keyed"})
	if err != nil {
		t.Fatalf("Void: %v", err)
	}
	if !voided.IsVoided {
		t.Error("transaction not marked voided")
	}

	if _, err := env.txs.Create(ctx, actor, saleRequest(station, "1กก1234", "500.00", model.PayCash)); err != nil {
		t.Errorf("re-entry after void: %v", err)
	}

	rows, total, err := env.txs.List(ctx, actor, repository.TransactionFilter{StationID: &station.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Errorf("live sales = %d (total %d), want 1", len(rows), total)
	}
}

func TestCreateTransactionCreditNeedsOwner(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	_, err := env.txs.Create(ctx, actor, saleRequest(station, "70-1234", "900.00", model.PayCredit))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("credit without owner err = %v, want ErrValidation", err)
	}

	owner := testutil.Owner(t, env.db, "Somchai Transport", "70-1234")
	req := saleRequest(station, "", "900.00", model.PayCredit)
	req.TruckID = &owner.Trucks[0].ID
	res, err := env.txs.Create(ctx, actor, req)
	if err != nil {
		t.Fatalf("credit via truck: %v", err)
	}
	if res.Transaction.OwnerID == nil || *res.Transaction.OwnerID != owner.ID {
		t.Errorf("owner = %v, want %s from the truck", res.Transaction.OwnerID, owner.ID)
	}
	if res.Transaction.LicensePlate != "70-1234" {
		t.Errorf("plate = %q, want the truck's plate", res.Transaction.LicensePlate)
	}
}

func TestCreateTransactionAttachesOpenShift(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station, actor, shift := openTwoNozzleShift(t, env)

	req := &CreateTransactionRequest{StationID: station.ID, PaymentMethod: model.PayCard, Liters: dec("10")}
	res, err := env.txs.Create(ctx, actor, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Transaction.ShiftID == nil || *res.Transaction.ShiftID != shift.ID {
		t.Errorf("ShiftID = %v, want open shift %s", res.Transaction.ShiftID, shift.ID)
	}
	if !res.Transaction.PricePerLiter.Equal(shift.PricePerLiter) {
		t.Errorf("price = %s, want shift price %s", res.Transaction.PricePerLiter, shift.PricePerLiter)
	}

	recordAllEnds(t, env, actor, shift)
	preview, err := env.shifts.ClosePreview(ctx, actor, shift.ID)
	if err != nil {
		t.Fatalf("ClosePreview: %v", err)
	}
	if !preview.Prefill.Card.Equal(dec("300")) {
		t.Errorf("prefill card = %s, want 300", preview.Prefill.Card)
	}
}

func TestTransactionOutsideStationForbidden(t *testing.T) {
	env := newEnv(t)
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	other := testutil.Station(t, env.db, "ST02", 2, 1)

	_, err := env.txs.Create(context.Background(), staffActor(other.ID), saleRequest(station, "1กก1234", "10", model.PayCash))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestDeleteTransactionAdminOnly(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	station := testutil.Station(t, env.db, "ST01", 2, 1)
	actor := staffActor(station.ID)

	res, err := env.txs.Create(ctx, actor, saleRequest(station, "1กก1234", "500.00", model.PayCash))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.txs.Delete(ctx, actor, res.Transaction.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff Delete err = %v, want ErrForbidden", err)
	}
	if err := env.txs.Delete(ctx, adminActor(), res.Transaction.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	if _, err := env.txs.Get(ctx, adminActor(), res.Transaction.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted err = %v, want ErrNotFound", err)
	}
}
