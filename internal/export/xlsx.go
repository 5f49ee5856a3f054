package export

import (
	"strconv"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXBytes renders the table as a single-sheet workbook. Numeric columns are
// written as numbers so totals can be recomputed in the spreadsheet.
func XLSXBytes(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Report"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	write := func(rowIdx int, fields []string) error {
		for colIdx, v := range fields {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if colIdx < len(t.Numeric) && t.Numeric[colIdx] && v != "" {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					if err := f.SetCellFloat(sheet, cell, n, 2, 64); err != nil {
						return err
					}
					continue
				}
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(1, t.Headers); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := write(i+2, row); err != nil {
			return nil, err
		}
	}
	if len(t.Totals) > 0 {
		r := len(t.Rows) + 2
		if err := write(r, t.Totals); err != nil {
			return nil, err
		}
		first, _ := excelize.CoordinatesToCellName(1, r)
		end, _ := excelize.CoordinatesToCellName(len(t.Totals), r)
		if err := f.SetCellStyle(sheet, first, end, totalStyle); err != nil {
			return nil, err
		}
	}
	if col, err := excelize.ColumnNumberToName(len(t.Headers)); err == nil {
		_ = f.SetColWidth(sheet, "A", col, 16)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
