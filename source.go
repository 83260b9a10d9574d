package reshape

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadCSV reads a source table with a header row. Ragged rows are accepted,
// missing cells are null.
func ReadCSV(r io.Reader) ([]string, []Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		rows = append(rows, makeRow(header, record))
	}

	return header, rows, nil
}

// ReadZip reads every .csv member of a zip archive as chunks of one table.
// Members are read in name order and must share the first member's header.
func ReadZip(path string) ([]string, []Row, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer archive.Close()

	var members []*zip.File
	for _, f := range archive.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			members = append(members, f)
		}
	}
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("zip archive %s holds no .csv members", path)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	var header []string
	var rows []Row
	for _, member := range members {
		rc, err := member.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zip member %s: %w", member.Name, err)
		}

		h, r, err := ReadCSV(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("zip member %s: %w", member.Name, err)
		}

		if header == nil {
			header = h
		} else if !sameHeader(header, h) {
			return nil, nil, fmt.Errorf("zip member %s header does not match %s", member.Name, members[0].Name)
		}

		rows = append(rows, r...)
	}

	return header, rows, nil
}

// ReadXLSX reads the first sheet of an Excel workbook with a header row.
func ReadXLSX(r io.Reader) ([]string, []Row, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook holds no sheets")
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("sheet %s has no header row", sheets[0])
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, makeRow(header, record))
	}

	return header, rows, nil
}

// WriteCSV writes the table as CSV: key columns first, value column last.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(append(append([]string{}, t.KeyColumns...), t.ValueColumn)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range t.Rows {
		record := append(append([]string{}, row.Key...), row.Value.String())
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func makeRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if i < len(record) {
			row[name] = strings.TrimSpace(record[i])
		}
	}
	return row
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
