package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, use .csv or .xlsx")
	ErrMissingColumn     = errors.New("missing required column")
)

// Row is one guest line of an import file
type Row struct {
	// Line is the row number in the source file, header included
	Line     int
	Name     string
	Category string
	Phone    string
	Email    string
}

const (
	colName     = "name"
	colCategory = "category"
	colPhone    = "phone"
	colEmail    = "email"
)

// ReadRows parses an import file, choosing the format by extension
func ReadRows(filename string, r io.Reader) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return FromRecords(records)
}

// FromRecords maps a header row plus data rows to guest rows. Name and Phone
// columns are required, the rest are optional. Blank lines are skipped.
func FromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingColumn)
	}

	index := make(map[string]int)
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	for _, required := range []string{colName, colPhone} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows = append(rows, Row{
			Line:     i + 2,
			Name:     cell(record, colName),
			Category: cell(record, colCategory),
			Phone:    cell(record, colPhone),
			Email:    cell(record, colEmail),
		})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	return rows, nil
}
