// Package export renders sales and shift reports as CSV or XLSX tables.
package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"go-fuelstation-pos/internal/model"
)

// TotalLabel marks the trailing totals row.
const TotalLabel = "รวม"

// Table is a rendered report: a header row, data rows and an optional totals row.
// Numeric marks columns written as numbers in spreadsheets.
type Table struct {
	Sheet   string
	Headers []string
	Numeric []bool
	Rows    [][]string
	Totals  []string
}

var transactionHeaders = []string{
	"วันที่", "เวลา", "ประเภทการชำระ", "ทะเบียนรถ", "ลูกค้า",
	"ลิตร", "ราคาต่อลิตร", "จำนวนเงิน", "เล่มที่บิล", "เลขที่บิล", "หมายเหตุ",
}

var methodLabels = map[model.PaymentMethod]string{
	model.PayCash:     "เงินสด",
	model.PayCredit:   "เงินเชื่อ",
	model.PayTransfer: "โอน",
	model.PayCard:     "บัตร",
	model.PayBoxTruck: "รถตู้ทึบ",
}

// MethodLabel returns the Thai label of a payment method.
func MethodLabel(m model.PaymentMethod) string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// TransactionTable lists sales in the given order. Voided rows are kept but
// marked and left out of the totals.
func TransactionTable(rows []model.Transaction) Table {
	t := Table{
		Sheet:   "Transactions",
		Headers: transactionHeaders,
		Numeric: []bool{false, false, false, false, false, true, true, true, false, false, false},
	}
	liters, amount := decimal.Zero, decimal.Zero
	for i := range rows {
		tx := &rows[i]
		owner := ""
		if tx.Owner != nil {
			owner = tx.Owner.Name
		}
		note := tx.Note
		if tx.IsVoided {
			note = "ยกเลิก: " + tx.VoidReason
		} else {
			liters = liters.Add(tx.Liters)
			amount = amount.Add(tx.Amount)
		}
		local := tx.SoldAt.In(model.BangkokLocation)
		t.Rows = append(t.Rows, []string{
			tx.SaleDate,
			local.Format("15:04"),
			MethodLabel(tx.PaymentMethod),
			tx.LicensePlate,
			owner,
			tx.Liters.StringFixed(2),
			tx.PricePerLiter.StringFixed(2),
			tx.Amount.StringFixed(2),
			tx.BillBook,
			tx.BillNumber,
			note,
		})
	}
	t.Totals = []string{TotalLabel, "", "", "", "", liters.StringFixed(2), "", amount.StringFixed(2), "", "", ""}
	return t
}

var shiftHeaders = []string{
	"วันที่", "กะ", "พนักงาน", "ลิตรรวม", "ราคาต่อลิตร", "ยอดที่ควรได้",
	"เงินสด", "เงินเชื่อ", "บัตร", "โอน", "ยอดรับรวม", "ส่วนต่าง", "สถานะ", "ระดับ",
}

// ShiftTable renders one row per closed shift from its stored reconciliation.
// Shifts without a reconciliation are skipped.
func ShiftTable(shifts []model.Shift) Table {
	t := Table{
		Sheet:   "Shifts",
		Headers: shiftHeaders,
		Numeric: []bool{false, false, false, true, true, true, true, true, true, true, true, true, false, false},
	}
	sum := make([]decimal.Decimal, 8)
	for i := range shifts {
		s := &shifts[i]
		rec := s.Reconciliation
		if rec == nil {
			continue
		}
		staff := ""
		if s.Staff != nil {
			staff = s.Staff.FullName
		}
		money := []decimal.Decimal{
			rec.TotalLiters, rec.ExpectedAmount, rec.CashReceived, rec.CreditReceived,
			rec.CardReceived, rec.TransferReceived, rec.TotalReceived, rec.Variance,
		}
		for j, v := range money {
			sum[j] = sum[j].Add(v)
		}
		t.Rows = append(t.Rows, []string{
			s.Date,
			strconv.Itoa(s.ShiftNumber),
			staff,
			rec.TotalLiters.StringFixed(2),
			rec.PricePerLiter.StringFixed(2),
			rec.ExpectedAmount.StringFixed(2),
			rec.CashReceived.StringFixed(2),
			rec.CreditReceived.StringFixed(2),
			rec.CardReceived.StringFixed(2),
			rec.TransferReceived.StringFixed(2),
			rec.TotalReceived.StringFixed(2),
			rec.Variance.StringFixed(2),
			rec.VarianceStatus,
			rec.Severity,
		})
	}
	t.Totals = []string{
		TotalLabel, "", "",
		sum[0].StringFixed(2), "",
		sum[1].StringFixed(2), sum[2].StringFixed(2), sum[3].StringFixed(2),
		sum[4].StringFixed(2), sum[5].StringFixed(2), sum[6].StringFixed(2), sum[7].StringFixed(2),
		"", "",
	}
	return t
}
