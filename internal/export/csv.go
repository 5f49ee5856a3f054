package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// utf8BOM makes spreadsheet apps open the Thai headers as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var ErrEmptyCSV = errors.New("csv has no header row")

// WriteCSV writes the table with a UTF-8 BOM, every field quoted, CRLF line
// endings and the totals row last.
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(utf8BOM); err != nil {
		return err
	}
	writeRow := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
			bw.WriteByte('"')
		}
		bw.WriteString("\r\n")
	}

	writeRow(t.Headers)
	for _, row := range t.Rows {
		writeRow(row)
	}
	if len(t.Totals) > 0 {
		writeRow(t.Totals)
	}
	return bw.Flush()
}

// CSVBytes is WriteCSV into a buffer.
func CSVBytes(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSV reads a table written by WriteCSV. A last row starting with
// TotalLabel becomes Totals.
func ParseCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return Table{}, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, ErrEmptyCSV
	}

	t := Table{Headers: records[0]}
	body := records[1:]
	if n := len(body); n > 0 && len(body[n-1]) > 0 && body[n-1][0] == TotalLabel {
		t.Totals = body[n-1]
		body = body[:n-1]
	}
	t.Rows = body
	return t, nil
}
