package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"go-fuelstation-pos/internal/model"
)

func sampleTransactions() []model.Transaction {
	soldAt := time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC) // 09:30 in Bangkok
	return []model.Transaction{
		{
			SaleDate: "2025-03-01", SoldAt: soldAt, PaymentMethod: model.PayCash,
			Liters: decimal.RequireFromString("10.5"), PricePerLiter: decimal.RequireFromString("32.94"),
			Amount: decimal.RequireFromString("345.87"), LicensePlate: "1กก1234",
			Note: `says "hi", twice`,
		},
		{
			SaleDate: "2025-03-01", SoldAt: soldAt.Add(time.Hour), PaymentMethod: model.PayCredit,
			Liters: decimal.RequireFromString("100"), PricePerLiter: decimal.RequireFromString("32.94"),
			Amount: decimal.RequireFromString("3294.00"), LicensePlate: "70-1234",
			Owner: &model.Owner{Name: "หจก. ขนส่ง"}, BillBook: "A", BillNumber: "001",
		},
		{
			SaleDate: "2025-03-01", SoldAt: soldAt.Add(2 * time.Hour), PaymentMethod: model.PayCash,
			Liters: decimal.RequireFromString("5"), PricePerLiter: decimal.RequireFromString("32.94"),
			Amount: decimal.RequireFromString("164.70"), IsVoided: true, VoidReason: "keyed twice",
		},
	}
}

func TestTransactionCSVRoundTrip(t *testing.T) {
	table := TransactionTable(sampleTransactions())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Fatal("missing UTF-8 BOM")
	}
	if !strings.Contains(buf.String(), `"says ""hi"", twice"`) {
		t.Errorf("embedded quotes not escaped: %q", buf.String())
	}

	parsed, err := ParseCSV(&buf)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if strings.Join(parsed.Headers, "|") != strings.Join(table.Headers, "|") {
		t.Errorf("headers = %v, want %v", parsed.Headers, table.Headers)
	}
	if len(parsed.Rows) != len(table.Rows) {
		t.Fatalf("rows = %d, want %d", len(parsed.Rows), len(table.Rows))
	}
	for i := range table.Rows {
		if strings.Join(parsed.Rows[i], "|") != strings.Join(table.Rows[i], "|") {
			t.Errorf("row %d = %v, want %v", i, parsed.Rows[i], table.Rows[i])
		}
	}

	if len(parsed.Totals) == 0 || parsed.Totals[0] != TotalLabel {
		t.Fatalf("totals row missing: %v", parsed.Totals)
	}
	// voided sale is excluded from totals
	if got := parsed.Totals[5]; got != "110.50" {
		t.Errorf("total liters = %s, want 110.50", got)
	}
	if got := parsed.Totals[7]; got != "3639.87" {
		t.Errorf("total amount = %s, want 3639.87", got)
	}
}

func TestTransactionTableFormatsRows(t *testing.T) {
	table := TransactionTable(sampleTransactions())

	first := table.Rows[0]
	if first[1] != "09:30" {
		t.Errorf("time = %s, want 09:30 Bangkok", first[1])
	}
	if first[2] != MethodLabel(model.PayCash) {
		t.Errorf("method = %s", first[2])
	}
	if table.Rows[1][4] != "หจก. ขนส่ง" {
		t.Errorf("owner = %s", table.Rows[1][4])
	}
	if !strings.HasPrefix(table.Rows[2][10], "ยกเลิก") {
		t.Errorf("voided note = %s", table.Rows[2][10])
	}
}

func TestShiftTableSkipsOpenShifts(t *testing.T) {
	shifts := []model.Shift{
		{
			Date: "2025-03-01", ShiftNumber: 1, Staff: &model.User{FullName: "สมชาย"},
			Reconciliation: &model.Reconciliation{
				ShiftID:        uuid.New(),
				TotalLiters:    decimal.RequireFromString("100"),
				PricePerLiter:  decimal.RequireFromString("30"),
				ExpectedAmount: decimal.RequireFromString("3000"),
				CashReceived:   decimal.RequireFromString("2900"),
				TotalReceived:  decimal.RequireFromString("2900"),
				Variance:       decimal.RequireFromString("-100"),
				VarianceStatus: "SHORT",
				Severity:       "INFO",
			},
		},
		{Date: "2025-03-01", ShiftNumber: 2},
	}

	table := ShiftTable(shifts)
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	if table.Rows[0][11] != "-100.00" {
		t.Errorf("variance = %s", table.Rows[0][11])
	}
	if table.Totals[5] != "3000.00" {
		t.Errorf("expected total = %s", table.Totals[5])
	}
}

func TestXLSXBytes(t *testing.T) {
	table := TransactionTable(sampleTransactions())

	data, err := XLSXBytes(table)
	if err != nil {
		t.Fatalf("XLSXBytes: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue("Transactions", "A1")
	if err != nil || header != table.Headers[0] {
		t.Errorf("A1 = %q (%v), want %q", header, err, table.Headers[0])
	}
	total, err := f.GetCellValue("Transactions", "A5")
	if err != nil || total != TotalLabel {
		t.Errorf("A5 = %q (%v), want totals label", total, err)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err != ErrEmptyCSV {
		t.Errorf("err = %v, want ErrEmptyCSV", err)
	}
}
