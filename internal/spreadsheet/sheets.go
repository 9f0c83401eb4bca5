package spreadsheet

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// SheetsSource reads guest rows from a Google Sheets spreadsheet
type SheetsSource struct {
	srv *sheetsv4.Service
}

func NewSheetsSource(ctx context.Context, serviceAccountJSONPath string) (*SheetsSource, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, err
	}
	return &SheetsSource{srv: srv}, nil
}

// ReadRows reads a range such as "Guests!A:D". The first row must be the
// header.
func (s *SheetsSource) ReadRows(ctx context.Context, spreadsheetID, readRange string) ([]Row, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return FromRecords(toRecords(resp.Values))
}

func toRecords(values [][]interface{}) [][]string {
	records := make([][]string, len(values))
	for i, row := range values {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = fmt.Sprint(v)
		}
		records[i] = record
	}
	return records
}
